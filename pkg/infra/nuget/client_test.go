package nuget_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refasm/pkg/domain/model"
	"github.com/m-mizutani/refasm/pkg/domain/types"
	"github.com/m-mizutani/refasm/pkg/infra/nuget"
)

const packagePath = "/api/v2/package/Microsoft.NETFramework.ReferenceAssemblies.net40/1.0.3"

func TestClient_PackageURL(t *testing.T) {
	ref := &model.PackageRef{TFM: "net40", Version: "1.0.3"}

	t.Run("default feed", func(t *testing.T) {
		client := nuget.NewClient()
		gt.Value(t, client.PackageURL(ref)).
			Equal("https://www.nuget.org/api/v2/package/Microsoft.NETFramework.ReferenceAssemblies.net40/1.0.3")
	})

	t.Run("custom feed with trailing slash", func(t *testing.T) {
		client := nuget.NewClient(nuget.WithFeedURL("https://feed.example.com/nuget/"))
		gt.Value(t, client.PackageURL(ref)).
			Equal("https://feed.example.com/nuget/Microsoft.NETFramework.ReferenceAssemblies.net40/1.0.3")
	})
}

func TestClient_Download_Success(t *testing.T) {
	content := []byte("fake zip content")
	var gets atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != packagePath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		w.Header().Set("Content-Type", "application/zip")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(
		nuget.WithFeedURL(server.URL+"/api/v2/package"),
		nuget.WithPollInterval(time.Millisecond),
	)

	n, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.NoError(t, err)
	gt.Number(t, n).Equal(int64(len(content)))
	gt.Number(t, gets.Load()).Equal(int32(1))

	data, err := os.ReadFile(dst)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(string(content))
}

func TestClient_Download_FollowsRedirect(t *testing.T) {
	content := []byte("redirected content")

	mux := http.NewServeMux()
	mux.HandleFunc(packagePath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cdn/package.nupkg", http.StatusFound)
	})
	mux.HandleFunc("/cdn/package.nupkg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL + "/api/v2/package"))

	_, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.NoError(t, err)

	data, err := os.ReadFile(dst)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(string(content))
}

func TestClient_Download_ReplacesStaleArchive(t *testing.T) {
	content := []byte("new")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	gt.NoError(t, os.WriteFile(dst, []byte("stale archive that is longer"), 0644))

	client := nuget.NewClient(nuget.WithFeedURL(server.URL))
	_, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.NoError(t, err)

	data, err := os.ReadFile(dst)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal("new")
}

func TestClient_Download_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html>not found</html>"))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	_, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "9.9.9"}, dst)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrUnexpectedStatus))

	_, err = os.Stat(dst)
	gt.True(t, errors.Is(err, os.ErrNotExist))
}

func TestClient_Download_Token(t *testing.T) {
	var auth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			auth.Store(r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := nuget.NewClient(nuget.WithFeedURL(server.URL), nuget.WithToken("secret-token"))
	_, err := client.Download(context.Background(),
		&model.PackageRef{TFM: "net40", Version: "1.0.3"},
		filepath.Join(t.TempDir(), "ref_net40.zip"),
	)
	gt.NoError(t, err)
	gt.Value(t, auth.Load().(string)).Equal("Bearer secret-token")
}

func TestClient_Download_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := nuget.NewClient(nuget.WithFeedURL(url))
	_, err := client.Download(context.Background(),
		&model.PackageRef{TFM: "net40", Version: "1.0.3"},
		filepath.Join(t.TempDir(), "ref_net40.zip"),
	)
	gt.Error(t, err)
}

func TestClient_Download_HeadNotAllowed(t *testing.T) {
	content := []byte("twenty-three byte body!")
	var gets atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gets.Add(1)
		_, _ = w.Write(content)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	n, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.NoError(t, err)
	gt.Number(t, n).Equal(int64(len(content)))
	gt.Number(t, gets.Load()).Equal(int32(1))

	data, err := os.ReadFile(dst)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(string(content))
}

func TestClient_Download_HeadForbidden(t *testing.T) {
	content := []byte("presigned package body")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write(content)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	n, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.NoError(t, err)
	gt.Number(t, n).Equal(int64(len(content)))

	data, err := os.ReadFile(dst)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(string(content))
}

func TestClient_Download_EmptyHeadThenNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	_, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.True(t, errors.Is(err, types.ErrUnexpectedStatus))

	_, err = os.Stat(dst)
	gt.True(t, errors.Is(err, os.ErrNotExist))
}

func TestClient_Download_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("0123456789"))
		}
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "ref_net40.zip")
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	_, err := client.Download(context.Background(), &model.PackageRef{TFM: "net40", Version: "1.0.3"}, dst)
	gt.Error(t, err)

	_, err = os.Stat(dst)
	gt.True(t, errors.Is(err, os.ErrNotExist))
}

// newStallingServer answers nothing until the client goes away
func newStallingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	return server
}

func TestClient_Download_Timeout(t *testing.T) {
	server := newStallingServer(t)

	client := nuget.NewClient(
		nuget.WithFeedURL(server.URL),
		nuget.WithTimeout(50*time.Millisecond),
	)

	start := time.Now()
	_, err := client.Download(context.Background(),
		&model.PackageRef{TFM: "net40", Version: "1.0.3"},
		filepath.Join(t.TempDir(), "ref_net40.zip"),
	)
	gt.Error(t, err)
	gt.True(t, time.Since(start) < 5*time.Second)
}

func TestClient_Download_ContextCanceled(t *testing.T) {
	server := newStallingServer(t)
	client := nuget.NewClient(nuget.WithFeedURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Download(ctx,
		&model.PackageRef{TFM: "net40", Version: "1.0.3"},
		filepath.Join(t.TempDir(), "ref_net40.zip"),
	)
	gt.Error(t, err)
}

func TestClient_Download_TokenNotSentToOtherHost(t *testing.T) {
	var cdnAuth atomic.Value
	cdnAuth.Store("")
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			cdnAuth.Store(auth)
		}
		_, _ = w.Write([]byte("package"))
	}))
	defer cdn.Close()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cdn.URL+"/package.nupkg", http.StatusFound)
	}))
	defer feed.Close()

	client := nuget.NewClient(nuget.WithFeedURL(feed.URL), nuget.WithToken("secret-token"))
	_, err := client.Download(context.Background(),
		&model.PackageRef{TFM: "net40", Version: "1.0.3"},
		filepath.Join(t.TempDir(), "ref_net40.zip"),
	)
	gt.NoError(t, err)
	gt.Value(t, cdnAuth.Load().(string)).Equal("")
}
