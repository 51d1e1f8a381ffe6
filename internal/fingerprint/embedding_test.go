package fingerprint

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFaceServer(t *testing.T, status int, resp FaceResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(status)
			return
		case "/embed/face":
		default:
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if len(data) == 0 {
			t.Error("uploaded file is empty")
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part Content-Type = %q, want image/jpeg", ct)
		}

		if status != http.StatusOK {
			http.Error(w, "boom", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 4, 5}

func TestComputeFaceEmbeddings(t *testing.T) {
	want := FaceResponse{
		FacesCount: 1,
		Model:      "buffalo_l",
		Faces: []FaceDetection{{
			FaceIndex: 0,
			Dim:       3,
			Embedding: []float32{0.1, 0.2, 0.3},
			BBox:      []float64{10, 20, 50, 70},
			DetScore:  0.93,
		}},
	}
	srv := newFaceServer(t, http.StatusOK, want)
	defer srv.Close()

	client := NewEmbeddingClient(srv.URL+"/", "")
	got, err := client.ComputeFaceEmbeddings(context.Background(), jpegBytes)
	if err != nil {
		t.Fatalf("ComputeFaceEmbeddings() error = %v", err)
	}
	if got.FacesCount != 1 || len(got.Faces) != 1 {
		t.Fatalf("ComputeFaceEmbeddings() faces = %d, want 1", len(got.Faces))
	}
	if got.Faces[0].DetScore != 0.93 {
		t.Errorf("DetScore = %v, want 0.93", got.Faces[0].DetScore)
	}
	if len(got.Faces[0].BBox) != 4 || got.Faces[0].BBox[2] != 50 {
		t.Errorf("BBox = %v, want [10 20 50 70]", got.Faces[0].BBox)
	}
	if got.Model != "buffalo_l" {
		t.Errorf("Model = %q, want buffalo_l", got.Model)
	}
}

func TestDetect_ReturnsFaces(t *testing.T) {
	srv := newFaceServer(t, http.StatusOK, FaceResponse{})
	defer srv.Close()

	faces, err := NewEmbeddingClient(srv.URL, "").Detect(context.Background(), jpegBytes)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("Detect() = %d faces, want 0", len(faces))
	}
}

func TestComputeFaceEmbeddings_ServerError(t *testing.T) {
	srv := newFaceServer(t, http.StatusInternalServerError, FaceResponse{})
	defer srv.Close()

	_, err := NewEmbeddingClient(srv.URL, "").ComputeFaceEmbeddings(context.Background(), jpegBytes)
	if err == nil {
		t.Fatal("ComputeFaceEmbeddings() expected error on 500")
	}
}

func TestHealth(t *testing.T) {
	ok := newFaceServer(t, http.StatusOK, FaceResponse{})
	defer ok.Close()
	if err := NewEmbeddingClient(ok.URL, "").Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}

	bad := newFaceServer(t, http.StatusServiceUnavailable, FaceResponse{})
	defer bad.Close()
	if err := NewEmbeddingClient(bad.URL, "").Health(context.Background()); err == nil {
		t.Error("Health() expected error on 503")
	}
}

func TestNewEmbeddingClient_Defaults(t *testing.T) {
	c := NewEmbeddingClient("", "")
	if c.baseURL != defaultEmbeddingURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, defaultEmbeddingURL)
	}
	if c.Model() != defaultFaceModel {
		t.Errorf("Model() = %q, want %q", c.Model(), defaultFaceModel)
	}
}
