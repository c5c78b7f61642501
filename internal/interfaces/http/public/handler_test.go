package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/infrastructure/memory"
	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

const storedID = "665f1c2e9b1e8a0001a1b2c3"

type fakeRepository struct {
	mu      sync.Mutex
	err     error
	records []domain.Record
}

func (f *fakeRepository) Insert(_ context.Context, record *domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	record.ID = storedID
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeDocuments struct {
	filename    string
	contentType string
	body        string
	err         error
}

func (f *fakeDocuments) Put(_ context.Context, filename, contentType string, body io.Reader) (string, error) {
	raw, _ := io.ReadAll(body)
	f.filename, f.contentType, f.body = filename, contentType, string(raw)
	if f.err != nil {
		return "", f.err
	}
	return "https://media.example.com/applications/abc.pdf", nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+"|"+subject)
	return f.err
}

type failedCall struct {
	body     mongodoc.NotificationBody
	cause    error
	attempts int
}

type fakeFailedNotifications struct {
	calls chan failedCall
}

func (f *fakeFailedNotifications) Record(_ context.Context, body mongodoc.NotificationBody, cause error, attempts int) error {
	f.calls <- failedCall{body: body, cause: cause, attempts: attempts}
	return nil
}

type testEnv struct {
	router  http.Handler
	handler *Handler
	repo    *fakeRepository
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	repo := &fakeRepository{}
	submissions := application.NewSubmissionService(repo, domain.DefaultFeeSchedule(), zap.NewNop())
	forms := application.NewFormService(memory.NewSessionStore(time.Hour), submissions, submissions, zap.NewNop())

	cfg.Logger = zap.NewNop()
	cfg.Applications = submissions
	cfg.Forms = forms
	h := NewHandler(cfg)
	h.retryDelay = 0

	r := chi.NewRouter()
	h.Register(r)
	return &testEnv{router: r, handler: h, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

const ghanaApplication = `{
	"firstName": " Ama ",
	"surname": "Owusu",
	"phone": "+233246456756",
	"country": "Ghana",
	"previousProgram": "BSc. Computer Science",
	"intendedProgram": "MSc. Mathematics",
	"paymentOption": "admission",
	"agreed": true
}`

func TestQuoteHandler(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodGet, "/fees/quote?paymentOption=both&country=kenya", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var quote quoteResponse
	decodeBody(t, rec, &quote)
	assert.Equal(t, 588.0, quote.BaseFee)
	assert.Equal(t, 294.0, quote.Fee)
	assert.True(t, quote.IsDiscounted)
	assert.Equal(t, "Admission & Funding", quote.Label)

	rec = env.do(t, http.MethodGet, "/fees/quote?country=France", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &quote)
	assert.Equal(t, 294.0, quote.Fee)
	assert.False(t, quote.IsDiscounted)

	rec = env.do(t, http.MethodGet, "/fees/quote?paymentOption=premium", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationCreate_Success(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/applications", ghanaApplication)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp receiptResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "submitted", resp.Status)
	assert.Equal(t, storedID, resp.Application.ID)
	assert.Equal(t, "Ama", resp.Application.FirstName)
	assert.Equal(t, 147.0, resp.Application.Fee)
	assert.True(t, resp.Application.IsDiscounted)
	assert.Nil(t, resp.Application.DocumentURL)
	assert.Contains(t, resp.Summary, "Fee Paid: $147")
	assert.Contains(t, resp.Summary, "Payment Option: Admission Only")
	assert.True(t, strings.HasPrefix(resp.ShareLinks.WhatsApp, "https://wa.me/?text="))
	assert.True(t, strings.HasPrefix(resp.ShareLinks.Email, "mailto:?subject=Application%20Summary&body="))

	require.Equal(t, 1, env.repo.count())
	assert.Equal(t, "Ama", env.repo.records[0].FirstName)
}

func TestApplicationCreate_Errors(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		repoErr    error
		wantStatus int
		wantError  string
	}{
		{
			name:       "not agreed",
			body:       strings.Replace(ghanaApplication, `"agreed": true`, `"agreed": false`, 1),
			wantStatus: http.StatusBadRequest,
			wantError:  "please agree to the terms",
		},
		{
			name:       "missing fields",
			body:       strings.Replace(ghanaApplication, `"surname": "Owusu"`, `"surname": "  "`, 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "required fields are missing",
		},
		{
			name:       "unknown payment option",
			body:       strings.Replace(ghanaApplication, `"admission"`, `"premium"`, 1),
			wantStatus: http.StatusBadRequest,
			wantError:  "unknown payment option",
		},
		{
			name:       "malformed json",
			body:       `{"firstName":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON",
		},
		{
			name:       "store failure",
			body:       ghanaApplication,
			repoErr:    errors.New("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantError:  "connection refused",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, Config{})
			env.repo.err = tc.repoErr

			rec := env.do(t, http.MethodPost, "/applications", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var body map[string]any
			decodeBody(t, rec, &body)
			assert.Contains(t, body["error"], tc.wantError)
			assert.Zero(t, env.repo.count())
		})
	}
}

func TestApplicationCreate_ListsMissingFields(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/applications", `{"agreed": true, "surname": "Owusu", "phone": "1", "country": "Ghana", "previousProgram": "BSc"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Fields []string `json:"fields"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, []string{"firstName", "intendedProgram"}, body.Fields)
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var session sessionResponse
	decodeBody(t, rec, &session)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "admission", session.Draft.PaymentOption)
	assert.Equal(t, 294.0, session.Quote.Fee)
	base := "/sessions/" + session.ID

	rec = env.do(t, http.MethodPatch, base+"/draft", `{"fields": {"country": "Kenya", "paymentOption": "both"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &session)
	assert.Equal(t, "Kenya", session.Draft.Country)
	assert.Equal(t, 294.0, session.Quote.Fee)
	assert.True(t, session.Quote.IsDiscounted)

	rec = env.do(t, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var failed map[string]any
	decodeBody(t, rec, &failed)
	assert.Equal(t, "please agree to the terms", failed["error"])
	assert.NotNil(t, failed["session"])

	rec = env.do(t, http.MethodPatch, base+"/draft", `{"fields": {
		"firstName": "Wanjiru", "surname": "Kamau", "phone": "+254700000000",
		"previousProgram": "BA", "intendedProgram": "MBA", "agreed": true
	}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/submit", `{"documentUrl": " https://media.example.com/applications/cv.pdf "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeBody(t, rec, &session)
	require.NotNil(t, session.Receipt)
	assert.Equal(t, 294.0, session.Receipt.Application.Fee)
	assert.Equal(t, "https://media.example.com/applications/cv.pdf", *session.Receipt.Application.DocumentURL)
	assert.Contains(t, session.Receipt.Summary, "Document: https://media.example.com/applications/cv.pdf")
	assert.Equal(t, "Kenya", session.Draft.Country)

	rec = env.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &session)
	assert.NotNil(t, session.Receipt)
	assert.Equal(t, 1, env.repo.count())
}

func TestSessionSubmit_EmptyChunkedBody(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/sessions", "")
	var session sessionResponse
	decodeBody(t, rec, &session)
	base := "/sessions/" + session.ID

	rec = env.do(t, http.MethodPatch, base+"/draft", `{"fields": {
		"firstName": "Ama", "surname": "Owusu", "phone": "+233246456756", "country": "Ghana",
		"previousProgram": "BSc", "intendedProgram": "MSc", "agreed": true
	}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, base+"/submit", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeBody(t, rec, &session)
	require.NotNil(t, session.Receipt)
	assert.Nil(t, session.Receipt.Application.DocumentURL)
	assert.Equal(t, 1, env.repo.count())
}

func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodGet, "/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/sessions/missing/submit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/sessions", "")
	var session sessionResponse
	decodeBody(t, rec, &session)

	rec = env.do(t, http.MethodPatch, "/sessions/"+session.ID+"/draft", `{"fields": {"nickname": "A"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/sessions/"+session.ID+"/draft", `{"fields": {"phone": 233}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/sessions/"+session.ID+"/draft", `{"fields": {"paymentOption": "premium"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(application.ErrSubmissionInProgress))
	assert.Equal(t, http.StatusBadGateway, statusFor(&application.PersistenceError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&application.IncompleteDraftError{Fields: []string{"phone"}}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestNotifications_Delivered(t *testing.T) {
	received := make(chan map[string]any, 4)
	messenger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		received <- payload
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(messenger.Close)

	failed := &fakeFailedNotifications{calls: make(chan failedCall, 1)}
	env := newTestEnv(t, Config{
		HTTPClient:          messenger.Client(),
		MessengerEndpoint:   messenger.URL,
		DiscordDestination:  "discord",
		SlackDestination:    "slack",
		FailedNotifications: failed,
	})

	rec := env.do(t, http.MethodPost, "/applications", ghanaApplication)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case payload := <-received:
		assert.Equal(t, "discord", payload["destination"])
		assert.Equal(t, storedID, payload["userId"])
		assert.Contains(t, payload["text"], "New application received:")
	case <-time.After(2 * time.Second):
		t.Fatal("messenger was not called")
	}
	assert.Never(t, func() bool { return len(failed.calls) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifications_AllChannelsFail(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	messenger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		hits[payload["destination"].(string)]++
		mu.Unlock()
		http.Error(w, "gateway down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(messenger.Close)

	mailer := &fakeMailer{err: errors.New("ses throttled")}
	failed := &fakeFailedNotifications{calls: make(chan failedCall, 1)}
	env := newTestEnv(t, Config{
		HTTPClient:          messenger.Client(),
		MessengerEndpoint:   messenger.URL,
		DiscordDestination:  "discord",
		SlackDestination:    "slack",
		Mailer:              mailer,
		AdmissionsEmail:     "admissions@example.com",
		FailedNotifications: failed,
	})

	rec := env.do(t, http.MethodPost, "/applications", ghanaApplication)
	require.Equal(t, http.StatusCreated, rec.Code, "notification failures never change the response")

	select {
	case call := <-failed.calls:
		assert.Equal(t, storedID, call.body.ApplicationID)
		assert.Equal(t, "Ama Owusu", call.body.Name)
		assert.Equal(t, 147.0, call.body.Fee)
		assert.Equal(t, 5, call.attempts)
		assert.Contains(t, call.cause.Error(), "gateway down")
		assert.Contains(t, call.cause.Error(), "ses throttled")
	case <-time.After(2 * time.Second):
		t.Fatal("failure was not recorded")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, discordAttempts, hits["discord"])
	assert.Equal(t, 1, hits["slack"])
	assert.Len(t, mailer.sent, 1)
}

func TestNotifications_NoChannels(t *testing.T) {
	failed := &fakeFailedNotifications{calls: make(chan failedCall, 1)}
	h := NewHandler(Config{FailedNotifications: failed})

	h.notifyApplicationReceipt(context.Background(), domain.Record{ID: storedID})
	assert.Empty(t, failed.calls)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	docs := &fakeDocuments{}
	env := newTestEnv(t, Config{Documents: docs, UploadMaxBytes: 64})

	body, contentType := multipartBody(t, "file", "cv.pdf", "%PDF-1.7")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp uploadResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "https://media.example.com/applications/abc.pdf", resp.URL)
	assert.Equal(t, "cv.pdf", docs.filename)
	assert.Equal(t, "%PDF-1.7", docs.body)

	body, contentType = multipartBody(t, "attachment", "cv.pdf", "x")
	req = httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "file", "big.pdf", strings.Repeat("a", 128))
	req = httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	docs.err = errors.New("access denied")
	body, contentType = multipartBody(t, "file", "cv.pdf", "x")
	req = httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadHandler_Disabled(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/uploads", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
