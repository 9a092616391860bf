package services

import (
	resp "koreafit/internal/models/response_models"
)

const (
	PlanFree       = "free"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Features every plan carries are listed for the pricing page only. The
// paid ones are checked by exportService and EntitlementService.
const (
	FeatureBrowseIdeas      = "browse_ideas"
	FeatureBookmark         = "bookmark"
	FeatureBasicAnalysis    = "basic_analysis"
	FeatureNewsletter       = "newsletter"
	FeatureExportPDF        = "export_pdf"
	FeatureExportExcel      = "export_excel"
	FeatureExecutionPack    = "execution_pack"
	FeatureRegulatoryAlerts = "regulatory_alerts"
)

const (
	LimitIdeasPerMonth   = "ideas_per_month"
	LimitExportsPerMonth = "exports_per_month"
)

var planCatalog = []resp.Plan{
	{
		ID:       PlanFree,
		Name:     "Free",
		Currency: "KRW",
		Features: []string{FeatureBrowseIdeas, FeatureBookmark, FeatureBasicAnalysis, FeatureNewsletter},
		Limits: map[string]int64{
			LimitIdeasPerMonth:   30,
			LimitExportsPerMonth: 0,
		},
	},
	{
		ID:        PlanPremium,
		Name:      "Premium",
		Price:     29000,
		Currency:  "KRW",
		TrialDays: 7,
		Features: []string{
			FeatureBrowseIdeas, FeatureBookmark, FeatureBasicAnalysis, FeatureNewsletter,
			FeatureExportPDF, FeatureExportExcel,
			FeatureExecutionPack, FeatureRegulatoryAlerts,
		},
		Limits: map[string]int64{
			LimitExportsPerMonth: 50,
		},
	},
	{
		ID:        PlanEnterprise,
		Name:      "Enterprise",
		Price:     99000,
		Currency:  "KRW",
		TrialDays: 14,
		Features: []string{
			FeatureBrowseIdeas, FeatureBookmark, FeatureBasicAnalysis, FeatureNewsletter,
			FeatureExportPDF, FeatureExportExcel,
			FeatureExecutionPack, FeatureRegulatoryAlerts,
		},
		Limits: map[string]int64{},
	},
}

// featureGates maps plan id -> feature -> allowed. Built once from the
// catalog so the table and the advertised feature lists cannot drift.
var featureGates = func() map[string]map[string]bool {
	gates := make(map[string]map[string]bool, len(planCatalog))
	for _, p := range planCatalog {
		set := make(map[string]bool, len(p.Features))
		for _, f := range p.Features {
			set[f] = true
		}
		gates[p.ID] = set
	}
	return gates
}()

func findPlan(id string) (resp.Plan, bool) {
	for _, p := range planCatalog {
		if p.ID == id {
			return clonePlan(p), true
		}
	}
	return resp.Plan{}, false
}

func freePlan() resp.Plan {
	p, _ := findPlan(PlanFree)
	return p
}

func clonePlan(p resp.Plan) resp.Plan {
	p.Features = append([]string(nil), p.Features...)
	limits := make(map[string]int64, len(p.Limits))
	for k, v := range p.Limits {
		limits[k] = v
	}
	p.Limits = limits
	return p
}

// planLimit reports the numeric limit for kind; ok is false when the plan
// declares none, which means unlimited.
func planLimit(p resp.Plan, kind string) (limit int64, ok bool) {
	limit, ok = p.Limits[kind]
	return
}
