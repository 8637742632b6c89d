package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

// uploadRequest builds a multipart upload. An empty filename omits the file part.
func (a *testAPI) upload(t *testing.T, u *domain.User, caseID, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caseId", caseID))
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token(t, u))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndDownloadDocument(t *testing.T) {
	api := newTestAPI(t, 0)

	rec := api.upload(t, sam, "c1", "Retainer.pdf", "%PDF-1.4 body")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc domain.Document
	decodeJSON(t, rec, &doc)
	assert.Equal(t, "c1", doc.CaseID)
	assert.Equal(t, "Retainer.pdf", doc.Filename)
	assert.Equal(t, domain.DocumentStatusPending, doc.Status)
	assert.Equal(t, int64(13), doc.Size)

	rec = api.do(t, ann, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 body", rec.Body.String())
	assert.Equal(t, `attachment; filename=Retainer.pdf`, rec.Header().Get("Content-Disposition"))

	rec = api.do(t, tia, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodGet, "/api/cases/c1", nil)
	var detail domain.CaseDetail
	decodeJSON(t, rec, &detail)
	assert.Contains(t, detail.Summary, "Missing Documents: None")
}

func TestUploadDocument_Rejections(t *testing.T) {
	api := newTestAPI(t, 16)

	rec := api.upload(t, sam, "c1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File is required", errorOf(t, rec).Message)

	rec = api.upload(t, sam, "c1", "big.pdf", "0123456789abcdefXYZ")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = api.upload(t, tia, "c1", "x.pdf", "x")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.upload(t, admin, "missing", "x.pdf", "x")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, sam, http.MethodPost, "/api/documents/upload", map[string]string{"caseId": "c1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocuments_ListUpdateDelete(t *testing.T) {
	api := newTestAPI(t, 0)
	rec := api.upload(t, ann, "c1", "Brief.pdf", "brief")
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc domain.Document
	decodeJSON(t, rec, &doc)

	list := func(u *domain.User) []domain.Document {
		rec := api.do(t, u, http.MethodGet, "/api/documents?caseId=c1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var docs []domain.Document
		decodeJSON(t, rec, &docs)
		return docs
	}
	assert.Len(t, list(sam), 1)
	assert.Empty(t, list(bea))

	rec = api.do(t, sam, http.MethodPut, "/api/documents/"+doc.ID, map[string]string{"status": "Under Review"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeJSON(t, rec, &doc)
	assert.Equal(t, domain.DocumentStatusUnderReview, doc.Status)

	rec = api.do(t, sam, http.MethodPut, "/api/documents/"+doc.ID, map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, bea, http.MethodDelete, "/api/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, ann, http.MethodDelete, "/api/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, ann, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
