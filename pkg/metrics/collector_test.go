package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsAndServes(t *testing.T) {
	c := NewCollector()
	c.RecordExport("pdf", "success")
	c.RecordExport("pdf", "success")
	c.RecordExport("excel", "denied")
	c.RecordHTTP("/api/ideas", "GET", 200, 15*time.Millisecond)
	c.RecordMail("newsletter", errors.New("smtp down"))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `koreafit_exports_total{format="pdf",result="success"} 2`)
	assert.Contains(t, body, `koreafit_exports_total{format="excel",result="denied"} 1`)
	assert.Contains(t, body, `koreafit_mail_sent_total{kind="newsletter",result="error"} 1`)
	assert.Contains(t, body, `koreafit_http_requests_total{method="GET",route="/api/ideas",status="200"} 1`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordExport("pdf", "success")
		c.RecordGate("factcheck", "blocked")
		c.RecordHTTP("/", "GET", 200, time.Second)
		c.RecordAnalysis("general", "low")
		c.RecordMail("welcome", nil)
	})
}
