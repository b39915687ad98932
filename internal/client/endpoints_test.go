package client

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/studyswap/studyswap-go/internal/models"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// Тесты типизированной поверхности API: login/register, профили, поиск,
// multipart-создание объявления, чаты и медиа.

func TestLogin_SendsDeviceID(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var in models.LoginRequest
		readJSON(t, req, &in)
		require.Equal(t, "alice@campus.edu", in.Email)
		require.Equal(t, "secret", in.Password)
		require.NotEmpty(t, in.DeviceID)

		writeJSON(t, w, http.StatusOK, models.LoginResponse{
			IsLoginSuccessful: "true",
			AccessToken:       "access-1",
			RefreshToken:      "refresh-1",
		})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, store := newTestClient(t, srv.URL, nil)

	out, err := c.Login(context.Background(), "alice@campus.edu", "secret")
	require.NoError(t, err)
	require.Equal(t, "access-1", out.AccessToken)
	require.Equal(t, "refresh-1", out.RefreshToken)

	// Login сам токены не сохраняет: это ответственность session-слоя.
	_, err = store.Credentials(context.Background())
	require.ErrorIs(t, err, tokens.ErrNoCredentials)
}

func TestRegister_BackendError(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		var in models.RegisterRequest
		readJSON(t, req, &in)
		require.NotEmpty(t, in.DeviceID)

		writeJSON(t, w, http.StatusOK, models.RegisterResponse{
			IsLoggedIn:   "false",
			ErrorMessage: "email already in use",
		})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, nil)

	out, err := c.Register(context.Background(), models.RegisterRequest{
		Email:    "alice@campus.edu",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "false", out.IsLoggedIn)
	require.Equal(t, "email already in use", out.ErrorMessage)
}

func TestProfile_And_UserByID(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, http.StatusOK, models.User{UserID: 42, Email: "alice@campus.edu"})
	})
	r.Get("/user/5", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, http.StatusOK, models.User{UserID: 5, FirstName: "Bob"})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	me, err := c.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), me.UserID)

	other, err := c.UserByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Bob", other.FirstName)
}

func TestSearchProducts_BodyAndQuery(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/products/search", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.Equal(t, "1", req.URL.Query().Get("page"))
		require.Equal(t, "10", req.URL.Query().Get("size"))

		var in models.SearchRequest
		readJSON(t, req, &in)
		require.Equal(t, "textbook", in.Query)
		require.Equal(t, "books", in.Category)

		writeJSON(t, w, http.StatusOK, models.Page[models.Product]{
			Content:       []models.Product{{ID: 3, Title: "linear algebra"}},
			TotalElements: 1,
		})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	page, err := c.SearchProducts(context.Background(), models.SearchRequest{
		Query:    "textbook",
		Category: "books",
	}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	require.Equal(t, int64(3), page.Content[0].ID)
}

func TestCreateProduct_MultipartForm(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/products", func(w http.ResponseWriter, req *http.Request) {
		require.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, req.ParseMultipartForm(1<<20))

		require.Equal(t, "desk lamp", req.FormValue("title"))
		require.Equal(t, "barely used", req.FormValue("description"))
		require.Equal(t, "15.50", req.FormValue("price"))
		require.Equal(t, "furniture", req.FormValue("category"))

		files := req.MultipartForm.File["images"]
		require.Len(t, files, 2)
		require.Equal(t, "lamp.png", files[0].Filename)
		require.Equal(t, "image/png", files[0].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)

		writeJSON(t, w, http.StatusCreated, models.Product{ID: 11, Title: "desk lamp"})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	p, err := c.CreateProduct(context.Background(), models.CreateProductInput{
		Title:       "desk lamp",
		Description: "barely used",
		Price:       15.5,
		Category:    "furniture",
		Images: []models.ImageFile{
			{Name: "lamp.png", ContentType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
			{Data: []byte{0xff, 0xd8}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), p.ID)
}

func TestCreateProduct_Unauthorized_RetryAfterRefresh(t *testing.T) {
	t.Parallel()

	var (
		uploadCalls  atomic.Int32
		refreshCalls atomic.Int32
	)

	r := chi.NewRouter()
	r.Post("/auth/refresh", func(w http.ResponseWriter, req *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, models.RefreshResponse{
			AccessToken:  bearerToken(t, time.Hour),
			RefreshToken: "refresh-1",
		})
	})
	r.Post("/products", func(w http.ResponseWriter, req *http.Request) {
		uploadCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, store := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	_, err := c.CreateProduct(context.Background(), models.CreateProductInput{
		Title:    "desk lamp",
		Category: "furniture",
	})

	// Одноразовое multipart-тело не переигрывается: вызывающему предлагают
	// повторить отправку, но токен к этому моменту уже обновлён.
	require.ErrorIs(t, err, ErrRetryAfterRefresh)
	require.EqualValues(t, 1, uploadCalls.Load())
	require.EqualValues(t, 1, refreshCalls.Load())

	saved, err := store.Credentials(context.Background())
	require.NoError(t, err)
	require.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestMessages_UnwrapsPage(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/chats/7/messages", func(w http.ResponseWriter, req *http.Request) {
		// Дефолт размера страницы сообщений отличается от товарного.
		require.Equal(t, "50", req.URL.Query().Get("size"))

		writeJSON(t, w, http.StatusOK, models.Page[models.Message]{
			Content: []models.Message{{ID: 1, ChatID: 7, Body: "hi, is this still available?"}},
		})
	})
	r.Get("/chats/8/messages", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, http.StatusOK, models.Page[models.Message]{})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	msgs, err := c.Messages(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hi, is this still available?", msgs[0].Body)

	empty, err := c.Messages(context.Background(), 8, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestCreateChat_And_SendMessage(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/chats", func(w http.ResponseWriter, req *http.Request) {
		var in models.ChatCreateRequest
		readJSON(t, req, &in)
		require.Equal(t, int64(3), in.ProductID)

		writeJSON(t, w, http.StatusCreated, models.Chat{ID: 7, SellerID: 5})
	})
	r.Post("/chats/7/messages", func(w http.ResponseWriter, req *http.Request) {
		var in models.SendMessageRequest
		readJSON(t, req, &in)
		require.Equal(t, "still available?", in.Content)

		writeJSON(t, w, http.StatusCreated, models.Message{ID: 1, ChatID: 7, Body: in.Content})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	})

	chat, err := c.CreateChat(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, int64(7), chat.ID)

	msg, err := c.SendMessage(context.Background(), chat.ID, "still available?")
	require.NoError(t, err)
	require.Equal(t, "still available?", msg.Body)
}

func TestMediaURL_Table(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "http://api.local:8080/api", nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "absolute_passthrough",
			in:   "https://cdn.example.com/pic.png",
			want: "https://cdn.example.com/pic.png",
		},
		{
			name: "bare_filename",
			in:   "pic.png",
			want: "http://api.local:8080/media/pic.png",
		},
		{
			name: "nested_path_uses_basename",
			in:   "uploads/2025/pic.png",
			want: "http://api.local:8080/media/pic.png",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, c.MediaURL(tt.in))
		})
	}
}

func TestInlineImage_DataURL(t *testing.T) {
	t.Parallel()

	// Минимальный валидный PNG-заголовок для DetectContentType.
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

	mux := http.NewServeMux()
	mux.HandleFunc("/media/pic.png", func(w http.ResponseWriter, req *http.Request) {
		require.NotEmpty(t, bearerOf(req))
		require.Equal(t, "image/*", req.Header.Get("Accept"))

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := tokens.NewMemStore()
	require.NoError(t, store.SaveCredentials(context.Background(), &tokens.Credentials{
		AccessToken:  bearerToken(t, time.Hour),
		RefreshToken: "refresh-0",
	}))

	cfg := testConfig(srv.URL)
	cfg.MediaBaseURL = srv.URL
	c, err := New(cfg, store)
	require.NoError(t, err)

	out, err := c.InlineImage(context.Background(), "pic.png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
	require.Equal(t, base64.StdEncoding.EncodeToString(png), strings.TrimPrefix(out, "data:image/png;base64,"))
}

func TestInlineImage_AbsoluteURLPassthrough(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, "http://api.local:8080", nil)

	out, err := c.InlineImage(context.Background(), "https://cdn.example.com/pic.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/pic.png", out)
}
