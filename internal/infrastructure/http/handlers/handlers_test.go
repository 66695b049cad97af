package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/calorie"
	"github.com/healthylife/server/internal/domain/meal"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/domain/user"
	"github.com/healthylife/server/internal/infrastructure/http/handlers"
	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/internal/ports/inbound"
	apperrors "github.com/healthylife/server/pkg/errors"
	"github.com/healthylife/server/test/testutils"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type fakeMetrics struct {
	registered int
	sources    []string
}

func (f *fakeMetrics) UserRegistered()          { f.registered++ }
func (f *fakeMetrics) MealLogged(source string) { f.sources = append(f.sources, source) }

var testLimits = handlers.UploadLimits{
	MaxFileSize:  1024,
	AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic", "image/heif"},
}

// asUser marks every request as authenticated when id is not nil
func asUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id != uuid.Nil {
				r = r.WithContext(middleware.WithUser(r.Context(), id, "asha@example.com"))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(t *testing.T, userID uuid.UUID, register func(r chi.Router)) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(asUser(userID))
	register(r)
	return r
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type filePart struct {
	field, filename, contentType string
	data                         []byte
}

func doMultipart(h http.Handler, path string, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		if file.contentType != "" {
			hdr.Set("Content-Type", file.contentType)
		}
		part, _ := mw.CreatePart(hdr)
		_, _ = part.Write(file.data)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (apperrors.ErrorCode, string) {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error.Code, resp.Message
}

func newUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("asha@example.com", "Asha", "secret1", user.Profile{
		Age: 29, Weight: 61.5, Height: 165, DietPreference: shared.DietNonVeg, CalorieGoal: 1800,
	})
	require.NoError(t, err)
	return u
}

func TestSignupAcceptsNumericStrings(t *testing.T) {
	users := new(testutils.MockUserService)
	metrics := &fakeMetrics{}
	h := handlers.NewAuthAPIHandlers(users, security.NewValidationService(zap.NewNop()), metrics, zaptest.NewLogger(t))
	router := newRouter(t, uuid.Nil, func(r chi.Router) { r.Post("/api/auth/signup", h.Signup) })

	u := newUser(t)
	users.On("Signup", mock.Anything, mock.MatchedBy(func(cmd inbound.SignupCommand) bool {
		return cmd.Email == "asha@example.com" &&
			cmd.Profile.Age == 29 &&
			cmd.Profile.Weight == 61.5 &&
			cmd.Profile.Height == 165 &&
			cmd.Profile.Activity == user.ActivityLightlyActive &&
			cmd.Profile.CalorieGoal == 0
	})).Return(&inbound.AuthResult{Token: "jwt-token", User: u}, nil)

	rec := doJSON(router, http.MethodPost, "/api/auth/signup", `{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
		"age": "29", "weight": 61.5, "height": "165", "activity": "Lightly Active"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handlers.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, u.ID().String(), resp.User.ID)
	assert.Equal(t, shared.DietNonVeg, resp.User.DietPreference)
	assert.Equal(t, 1800, resp.User.CalorieGoal)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, 1, metrics.registered)
	users.AssertExpectations(t)
}

func TestSignupRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		code apperrors.ErrorCode
	}{
		{"malformed json", `{"name":`, apperrors.CodeBadRequest},
		{"non numeric age", `{"name":"A","email":"a@b.co","password":"x","age":"old","weight":60,"height":160}`, apperrors.CodeBadRequest},
		{"missing age", `{"name":"A","email":"a@b.co","password":"x","weight":60,"height":160}`, apperrors.CodeValidationFailed},
		{"bad email", `{"name":"A","email":"nope","password":"x","age":30,"weight":60,"height":160}`, apperrors.CodeValidationFailed},
		{"bad activity", `{"name":"A","email":"a@b.co","password":"x","age":30,"weight":60,"height":160,"activity":"Couch"}`, apperrors.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(testutils.MockUserService)
			h := handlers.NewAuthAPIHandlers(users, security.NewValidationService(zap.NewNop()), &fakeMetrics{}, zaptest.NewLogger(t))
			router := newRouter(t, uuid.Nil, func(r chi.Router) { r.Post("/api/auth/signup", h.Signup) })

			rec := doJSON(router, http.MethodPost, "/api/auth/signup", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			code, _ := errorCode(t, rec)
			assert.Equal(t, tt.code, code)
			users.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := new(testutils.MockUserService)
	h := handlers.NewAuthAPIHandlers(users, security.NewValidationService(zap.NewNop()), &fakeMetrics{}, zaptest.NewLogger(t))
	router := newRouter(t, uuid.Nil, func(r chi.Router) { r.Post("/api/auth/login", h.Login) })

	users.On("Login", mock.Anything, "asha@example.com", "wrong").Return(nil, apperrors.NewInvalidCredentialsError())

	rec := doJSON(router, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, msg := errorCode(t, rec)
	assert.Equal(t, apperrors.CodeInvalidCredentials, code)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestMeRequiresUser(t *testing.T) {
	users := new(testutils.MockUserService)
	h := handlers.NewAuthAPIHandlers(users, security.NewValidationService(zap.NewNop()), &fakeMetrics{}, zaptest.NewLogger(t))
	router := newRouter(t, uuid.Nil, func(r chi.Router) { r.Get("/api/auth/me", h.Me) })

	rec := doJSON(router, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMeMapsOptionalFields(t *testing.T) {
	u := newUser(t)
	users := new(testutils.MockUserService)
	h := handlers.NewAuthAPIHandlers(users, security.NewValidationService(zap.NewNop()), &fakeMetrics{}, zaptest.NewLogger(t))
	router := newRouter(t, u.ID(), func(r chi.Router) { r.Patch("/api/auth/me", h.UpdateMe) })

	users.On("UpdateMe", mock.Anything, u.ID(), mock.MatchedBy(func(up inbound.ProfileUpdate) bool {
		return up.Name == nil && up.Email == nil &&
			up.Weight != nil && *up.Weight == 59 &&
			up.DietPreference != nil && *up.DietPreference == shared.DietVeg &&
			up.CalorieGoal != nil && *up.CalorieGoal == 1700
	})).Return(u, nil)

	rec := doJSON(router, http.MethodPatch, "/api/auth/me", `{"weight":"59","dietPreference":"veg","calorieGoal":1700}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Asha", resp.Name)
	assert.Equal(t, 29, resp.Age)
	assert.NotContains(t, rec.Body.String(), "password")
	users.AssertExpectations(t)
}

func newMealRouter(t *testing.T, userID uuid.UUID, meals inbound.MealService, metrics handlers.MealRecorder) http.Handler {
	h := handlers.NewMealAPIHandlers(meals, security.NewValidationService(zap.NewNop()), testLimits, metrics, zaptest.NewLogger(t))
	return newRouter(t, userID, func(r chi.Router) {
		r.Get("/api/meals", h.List)
		r.Post("/api/meals/upload", h.Upload)
		r.Delete("/api/meals/{id}", h.Delete)
	})
}

func TestMealUploadWithPhoto(t *testing.T) {
	userID := uuid.New()
	meals := new(testutils.MockMealService)
	metrics := &fakeMetrics{}
	router := newMealRouter(t, userID, meals, metrics)

	logged := meal.Reconstruct(uuid.New(), userID, "/uploads/1-dosa.png", "crispy", "Masala Dosa", 420,
		meal.Macros{Protein: 9, Carbs: 60, Fat: 15}, map[string]interface{}{"source": "gemini-vision"},
		time.Now(), time.Now())
	meals.On("Upload", mock.Anything, userID, mock.MatchedBy(func(up inbound.MealUpload) bool {
		return up.Image != nil &&
			up.Image.MimeType == "image/png" &&
			up.Filename == "dosa.png" &&
			up.Description == "crispy"
	})).Return(logged, nil)

	rec := doMultipart(router, "/api/meals/upload", map[string]string{"description": " crispy "},
		&filePart{field: "image", filename: "dosa.png", data: pngBytes})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handlers.MealResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Masala Dosa", resp.Name)
	assert.Equal(t, 420, resp.Calories)
	assert.Equal(t, userID.String(), resp.UserID)
	assert.Equal(t, []string{"gemini-vision"}, metrics.sources)
	meals.AssertExpectations(t)
}

func TestMealUploadDescriptionJSON(t *testing.T) {
	userID := uuid.New()
	meals := new(testutils.MockMealService)
	router := newMealRouter(t, userID, meals, &fakeMetrics{})

	logged := meal.Reconstruct(uuid.New(), userID, "", "two idli", "Idli", 120, meal.Macros{}, nil, time.Now(), time.Now())
	meals.On("Upload", mock.Anything, userID, inbound.MealUpload{Description: "two idli"}).Return(logged, nil)

	rec := doJSON(router, http.MethodPost, "/api/meals/upload", `{"description":"two <b>idli</b>"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meals.AssertExpectations(t)
}

func TestMealUploadRejectsFiles(t *testing.T) {
	tests := []struct {
		name   string
		file   *filePart
		status int
		code   apperrors.ErrorCode
	}{
		{
			name:   "not an image",
			file:   &filePart{field: "image", filename: "notes.txt", contentType: "text/plain", data: []byte("hello")},
			status: http.StatusBadRequest,
			code:   apperrors.CodeUnsupportedMedia,
		},
		{
			name:   "image type not allowed",
			file:   &filePart{field: "image", filename: "scan.tiff", contentType: "image/tiff", data: []byte("II*")},
			status: http.StatusBadRequest,
			code:   apperrors.CodeUnsupportedMedia,
		},
		{
			name:   "too large",
			file:   &filePart{field: "image", filename: "big.png", contentType: "image/png", data: bytes.Repeat([]byte{1}, 2048)},
			status: http.StatusRequestEntityTooLarge,
			code:   apperrors.CodePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meals := new(testutils.MockMealService)
			router := newMealRouter(t, uuid.New(), meals, &fakeMetrics{})

			rec := doMultipart(router, "/api/meals/upload", nil, tt.file)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			code, _ := errorCode(t, rec)
			assert.Equal(t, tt.code, code)
			meals.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestMealUploadServiceErrors(t *testing.T) {
	userID := uuid.New()
	meals := new(testutils.MockMealService)
	router := newMealRouter(t, userID, meals, &fakeMetrics{})

	meals.On("Upload", mock.Anything, userID, mock.Anything).
		Return(nil, apperrors.NewAppError(apperrors.CodeNotFood, "not food", ""))

	rec := doMultipart(router, "/api/meals/upload", nil,
		&filePart{field: "image", filename: "cat.png", contentType: "image/png", data: pngBytes})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, apperrors.CodeNotFood, code)
}

func TestMealListAndDelete(t *testing.T) {
	userID := uuid.New()
	meals := new(testutils.MockMealService)
	router := newMealRouter(t, userID, meals, &fakeMetrics{})

	meals.On("List", mock.Anything, userID).Return([]*meal.Meal{}, nil)
	rec := doJSON(router, http.MethodGet, "/api/meals", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(router, http.MethodDelete, "/api/meals/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mealID := uuid.New()
	meals.On("Delete", mock.Anything, userID, mealID).Return(nil)
	rec = doJSON(router, http.MethodDelete, "/api/meals/"+mealID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestSmartBudget(t *testing.T) {
	userID := uuid.New()
	calories := new(testutils.MockCalorieService)
	h := handlers.NewCalorieAPIHandlers(calories, zaptest.NewLogger(t))
	router := newRouter(t, userID, func(r chi.Router) { r.Get("/api/calories/smart-budget", h.SmartBudget) })

	calories.On("SmartBudget", mock.Anything, userID).
		Return(calorie.Budget{SuggestedGoal: 2000, Reason: calorie.ReasonNoHistory}, nil)

	rec := doJSON(router, http.MethodGet, "/api/calories/smart-budget", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), calorie.ReasonNoHistory)
}

func TestGroceryHandlers(t *testing.T) {
	grocery := new(testutils.MockGroceryService)
	h := handlers.NewGroceryAPIHandlers(grocery, security.NewValidationService(zap.NewNop()), zaptest.NewLogger(t))
	router := newRouter(t, uuid.Nil, func(r chi.Router) {
		r.Get("/api/grocery", h.WeeklyPlan)
		r.Post("/api/grocery/recommend", h.Recommend)
	})

	grocery.On("WeeklyPlan", shared.DietNonVeg, "2026-04-06", mock.Anything).
		Return(inbound.WeeklyPlan{Diet: shared.DietNonVeg, Week: "2026-04-06", Recipes: []assistant.RecipeSuggestion{}})
	rec := doJSON(router, http.MethodGet, "/api/grocery?diet=non-veg&week=2026-04-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"diet":"non-veg"`)

	grocery.On("Recommend", mock.Anything, assistant.RecommendRequest{
		Diet: shared.DietVeg,
		Cart: []assistant.CartItem{{Name: "Spinach", Quantity: 2}},
	}).Return(assistant.Recommendation{Diet: shared.DietVeg, Meta: assistant.RecommendationMeta{Source: assistant.SourceStatic}})
	rec = doJSON(router, http.MethodPost, "/api/grocery/recommend", `{"diet":"veg","cart":[{"name":"Spinach","quantity":2}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"static"`)

	grocery.AssertExpectations(t)
}

func TestGroceryRecommendCoercesAnyCart(t *testing.T) {
	longCart := make([]string, 0, 51)
	for i := 0; i < 51; i++ {
		longCart = append(longCart, fmt.Sprintf(`{"name":"Item %d"}`, i))
	}

	tests := []struct {
		name string
		body string
		diet shared.DietPreference
		want func(t *testing.T, cart []assistant.CartItem)
	}{
		{"nameless line dropped", `{"cart":[{"quantity":2},{"name":"Spinach"}]}`, shared.DietVeg,
			func(t *testing.T, cart []assistant.CartItem) {
				assert.Equal(t, []assistant.CartItem{{Name: "Spinach"}}, cart)
			}},
		{"cart not an array", `{"diet":"non-veg","cart":"spinach"}`, shared.DietNonVeg,
			func(t *testing.T, cart []assistant.CartItem) { assert.Empty(t, cart) }},
		{"too many lines truncated", `{"cart":[` + strings.Join(longCart, ",") + `]}`, shared.DietVeg,
			func(t *testing.T, cart []assistant.CartItem) {
				require.Len(t, cart, 50)
				assert.Equal(t, "Item 49", cart[49].Name)
			}},
		{"quantity clamped", `{"cart":[{"name":"Rice","quantity":5000},{"name":"Dal","quantity":-3},{"name":"Oats","quantity":"2"}]}`, shared.DietVeg,
			func(t *testing.T, cart []assistant.CartItem) {
				assert.Equal(t, []assistant.CartItem{{Name: "Rice", Quantity: 1000}, {Name: "Dal"}, {Name: "Oats", Quantity: 2}}, cart)
			}},
		{"numeric name kept as text", `{"diet":7,"cart":[{"name":42}]}`, shared.DietVeg,
			func(t *testing.T, cart []assistant.CartItem) {
				assert.Equal(t, []assistant.CartItem{{Name: "42"}}, cart)
			}},
		{"malformed body", `{"cart": [`, shared.DietVeg,
			func(t *testing.T, cart []assistant.CartItem) { assert.Empty(t, cart) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grocery := new(testutils.MockGroceryService)
			h := handlers.NewGroceryAPIHandlers(grocery, security.NewValidationService(zap.NewNop()), zaptest.NewLogger(t))
			router := newRouter(t, uuid.Nil, func(r chi.Router) { r.Post("/api/grocery/recommend", h.Recommend) })

			var got assistant.RecommendRequest
			grocery.On("Recommend", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(1).(assistant.RecommendRequest) }).
				Return(assistant.Recommendation{Diet: tt.diet, Meta: assistant.RecommendationMeta{Source: assistant.SourceStatic}})

			rec := doJSON(router, http.MethodPost, "/api/grocery/recommend", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.diet, got.Diet)
			tt.want(t, got.Cart)
		})
	}
}

func newChatRouter(t *testing.T, userID uuid.UUID, coach inbound.AssistantService, users inbound.UserService) http.Handler {
	h := handlers.NewChatAPIHandlers(coach, users, testLimits, zaptest.NewLogger(t))
	return newRouter(t, userID, func(r chi.Router) {
		r.Post("/api/chat", h.Chat)
		r.Post("/api/chat/image", h.ChatImage)
	})
}

func TestChatRequiresMessageArray(t *testing.T) {
	router := newChatRouter(t, uuid.Nil, new(testutils.MockAssistantService), new(testutils.MockUserService))

	for _, body := range []string{`{}`, `{"messages":"hi"}`, `{"messages":{"role":"user"}}`} {
		rec := doJSON(router, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		_, msg := errorCode(t, rec)
		assert.Equal(t, "messages must be an array", msg)
	}
}

func TestChatAnonymousUsesClientIP(t *testing.T) {
	coach := new(testutils.MockAssistantService)
	router := newChatRouter(t, uuid.Nil, coach, new(testutils.MockUserService))

	reply := assistant.NewReply("Try dal.", assistant.ReplyMeta{Source: assistant.SourceLocal})
	coach.On("Chat", mock.Anything, mock.MatchedBy(func(req assistant.ChatRequest) bool {
		return req.ConversationKey == "192.0.2.1" &&
			req.Diet == shared.DietVeg &&
			len(req.Messages) == 2 &&
			req.Messages[1].Role == assistant.RoleUser
	})).Return(reply)

	rec := doJSON(router, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"assistant","content":"Hi"},{"role":"bogus","content":"protein ideas?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got assistant.NormalizedReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, reply, got)
	coach.AssertExpectations(t)
}

func TestChatSignedInUsesProfileDiet(t *testing.T) {
	userID := uuid.New()
	coach := new(testutils.MockAssistantService)
	users := new(testutils.MockUserService)
	router := newChatRouter(t, userID, coach, users)

	users.On("DietPreference", mock.Anything, userID).Return(shared.DietNonVeg)
	coach.On("Chat", mock.Anything, mock.MatchedBy(func(req assistant.ChatRequest) bool {
		return req.ConversationKey == userID.String() && req.Diet == shared.DietNonVeg
	})).Return(assistant.NewReply("Eggs.", assistant.ReplyMeta{Source: assistant.SourcePerplexity}))

	rec := doJSON(router, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"breakfast?"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	coach.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestChatImageErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{
			name:   "vision not configured",
			err:    assistant.NewProviderError("", assistant.KindInvalidInput, assistant.ErrVisionNotConfigured),
			status: http.StatusBadRequest,
			code:   apperrors.CodeVisionUnavailable,
		},
		{
			name:   "not an image",
			err:    assistant.NewProviderError("", assistant.KindInvalidInput, assistant.ErrNotImage),
			status: http.StatusBadRequest,
			code:   apperrors.CodeUnsupportedMedia,
		},
		{
			name:   "provider failure",
			err:    assistant.NewProviderError("gemini", assistant.KindProviderUnavailable, errors.New("boom")),
			status: http.StatusBadGateway,
			code:   apperrors.CodeExternalServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coach := new(testutils.MockAssistantService)
			router := newChatRouter(t, uuid.Nil, coach, new(testutils.MockUserService))
			coach.On("ChatImage", mock.Anything, mock.Anything).Return(assistant.NormalizedReply{}, tt.err)

			rec := doMultipart(router, "/api/chat/image", nil,
				&filePart{field: "image", filename: "plate.png", contentType: "image/png", data: pngBytes})
			assert.Equal(t, tt.status, rec.Code)
			code, _ := errorCode(t, rec)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestChatImageRequiresFile(t *testing.T) {
	coach := new(testutils.MockAssistantService)
	router := newChatRouter(t, uuid.Nil, coach, new(testutils.MockUserService))

	rec := doMultipart(router, "/api/chat/image", map[string]string{"note": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, msg := errorCode(t, rec)
	assert.Equal(t, apperrors.CodeImageRequired, code)
	assert.Equal(t, "image is required", msg)
	coach.AssertNotCalled(t, "ChatImage", mock.Anything, mock.Anything)
}

func TestChatImageReply(t *testing.T) {
	coach := new(testutils.MockAssistantService)
	router := newChatRouter(t, uuid.Nil, coach, new(testutils.MockUserService))

	coach.On("ChatImage", mock.Anything, assistant.ImageRequest{Data: pngBytes, MimeType: "image/png"}).
		Return(assistant.NewReply("Looks like poha.", assistant.ReplyMeta{Source: assistant.SourceGemini, Vision: true}), nil)

	rec := doMultipart(router, "/api/chat/image", nil, &filePart{field: "image", filename: "poha.png", data: pngBytes})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Looks like poha.")
}

func TestHealth(t *testing.T) {
	h := handlers.NewHealthAPIHandlers(func() handlers.HealthResponse {
		return handlers.HealthResponse{Vision: handlers.VisionStatus{Google: true}, StrictFoodValidation: true}
	}, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","vision":{"google":true,"openai":false},"strictFoodValidation":true}`, rec.Body.String())
}
