package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"water_heater/internal/service"
)

func firmwareRequest(t *testing.T, field string, image []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, "firmware.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write image: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/update", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFirmwareUpdate_Staged(t *testing.T) {
	up := &mockUpdater{}
	r := newTestRouter(&service.Service{Updater: up})

	image := bytes.Repeat([]byte{0xAB}, 100*1024)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, firmwareRequest(t, "firmware", image))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if up.startCalled != 1 {
		t.Fatalf("OnStart called %d times", up.startCalled)
	}
	if up.endCalled != 1 {
		t.Fatalf("OnEnd called %d times", up.endCalled)
	}
	if len(up.progress) == 0 || up.progress[len(up.progress)-1] != int64(len(image)) {
		t.Fatalf("progress=%v, want final value %d", up.progress, len(image))
	}
	if len(up.errStages) != 0 {
		t.Fatalf("unexpected error stages: %v", up.errStages)
	}
}

func TestFirmwareUpdate_MissingFile(t *testing.T) {
	up := &mockUpdater{}
	r := newTestRouter(&service.Service{Updater: up})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, firmwareRequest(t, "wrong_field", []byte("image")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if up.startCalled != 0 || up.endCalled != 0 {
		t.Fatalf("updater invoked on bad request: start=%d end=%d", up.startCalled, up.endCalled)
	}
	if len(up.errStages) != 1 || up.errStages[0] != service.StageBegin {
		t.Fatalf("error stages=%v, want [begin]", up.errStages)
	}
}

func TestFirmwareUpdate_RefusedWhileActive(t *testing.T) {
	up := &mockUpdater{startErr: errors.New("update already in progress")}
	r := newTestRouter(&service.Service{Updater: up})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, firmwareRequest(t, "firmware", []byte("image")))

	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", w.Code)
	}
	if up.endCalled != 0 {
		t.Fatalf("OnEnd called despite refusal")
	}
}
