package interfaces

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	router := gin.New()
	NewHTTPHandler(router, nil, nil, nil, log)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartInterviewRejectsMalformedBody(t *testing.T) {
	router := newTestRouter()

	w := doJSON(router, http.MethodPost, "/api/interview/start", `{"user_id": "not a number"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/interview/start", `{"job_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "user_id is required")
}

func TestChatRejectsMissingSessionID(t *testing.T) {
	router := newTestRouter()

	w := doJSON(router, http.MethodPost, "/api/interview/chat", `{"user_answer": "답변입니다"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPathIDRejectsNonNumericAndNonPositive(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{
		"/api/interview/session/abc",
		"/api/interview/session/0",
		"/api/interview/session/-3",
	} {
		w := doJSON(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestSubmitVisionSummaryRequiresCounts(t *testing.T) {
	router := newTestRouter()

	w := doJSON(router, http.MethodPost, "/api/interview/session/1/vision-summary", `{"timeline": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
