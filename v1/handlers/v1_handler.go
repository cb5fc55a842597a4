// Package handlers routes the V1 HTTP surface onto the services.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/enrollhub/enrollment-backend/monitoring"
	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/roster"
	"github.com/enrollhub/enrollment-backend/shared/utils"
	v1 "github.com/enrollhub/enrollment-backend/v1"
	"github.com/enrollhub/enrollment-backend/v1/models"
	"github.com/enrollhub/enrollment-backend/v1/services"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	registrationService *services.RegistrationService
	activationService   *services.ActivationService
	paymentService      *services.PaymentService
	entitlementService  *services.EntitlementService
	pricingService      *services.PricingService
	storyService        *services.StoryService
	successRedirectURL  string
}

// NewV1Handler creates a V1 handler with the production roster index and
// checkout provider client built from the configuration.
func NewV1Handler(db *gorm.DB, cfg *v1.AppConfig) *V1Handler {
	idx := roster.NewIndex(cfg.RosterPath)
	provider := services.NewCheckoutClient(cfg.CheckoutBaseURL, cfg.CheckoutAPIKey, cfg.CheckoutTimeout)
	return NewV1HandlerWithDeps(db, cfg, idx, provider)
}

// NewV1HandlerWithDeps creates a V1 handler with injected collaborators
func NewV1HandlerWithDeps(db *gorm.DB, cfg *v1.AppConfig, idx services.RosterIndex, provider services.CheckoutProvider) *V1Handler {
	store := services.NewMemberStore(db)
	pricing := services.NewPricingService(db)

	return &V1Handler{
		registrationService: services.NewRegistrationService(store, idx),
		activationService:   services.NewActivationService(store),
		paymentService:      services.NewPaymentService(store, pricing, provider, cfg.Currency),
		entitlementService:  services.NewEntitlementService(store, idx, cfg.ActiveEmailOverrides),
		pricingService:      pricing,
		storyService:        services.NewStoryService(db),
		successRedirectURL:  cfg.SuccessRedirectURL,
	}
}

// SetupRoutes configures all V1 API routes
func (h *V1Handler) SetupRoutes(mux *http.ServeMux) {
	mux.Handle("/validate", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleValidate)))
	mux.Handle("/get-info/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleGetInfo)))
	mux.Handle("/activate", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleActivate)))
	mux.Handle("/is-active/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleIsActive)))
	mux.Handle("/is-paid/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleIsPaid)))
	mux.Handle("/create-payment", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleCreatePayment)))
	mux.Handle("/payment-callback", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handlePaymentCallback)))
	mux.Handle("/set-prices", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleSetPrices)))
	mux.Handle("/get-prices", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleGetPrices)))
	mux.Handle("/add-success-story", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleAddSuccessStory)))
	mux.Handle("/edit-success-story/", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleEditSuccessStory)))
	mux.Handle("/get-success-stories", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleGetSuccessStories)))
}

// respondWithServiceError maps service errors onto the wire error shape
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if apiErr := apierrors.AsAPIError(err); apiErr != nil {
		if apiErr.HTTPStatus >= http.StatusInternalServerError {
			slog.Error("Request failed", "error", err, "path", r.URL.Path, "method", r.Method)
		}
		utils.RespondWithErrorDetails(w, apiErr.HTTPStatus, apiErr.Message, apiErr.Details)
		return
	}
	slog.Error("Request failed", "error", err, "path", r.URL.Path, "method", r.Method)
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// pathSuffix extracts and unescapes the path segment after prefix
func pathSuffix(r *http.Request, prefix string) string {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.Trim(raw, "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *V1Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	accepted, err := h.registrationService.Register(r.Context(), &req)
	if err != nil {
		monitoring.RecordBusinessEvent(r.Context(), models.ActionMemberRegistered, "failure")
		respondWithServiceError(w, r, err)
		return
	}
	if accepted {
		monitoring.RecordBusinessEvent(r.Context(), models.ActionMemberRegistered, "success")
	}

	utils.RespondWithSuccess(w, http.StatusOK, models.ValidateResponse{Found: accepted})
}

func (h *V1Handler) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	email := pathSuffix(r, "/get-info/")
	info, err := h.entitlementService.GetDisplayInfo(r.Context(), email)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, info)
}

func (h *V1Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.activationService.Activate(r.Context(), req.Email); err != nil {
		monitoring.RecordBusinessEvent(r.Context(), models.ActionMemberActivated, "failure")
		respondWithServiceError(w, r, err)
		return
	}

	monitoring.RecordBusinessEvent(r.Context(), models.ActionMemberActivated, "success")
	utils.RespondWithSuccess(w, http.StatusOK, models.ActivateResponse{
		Success: true,
		Message: "member activated",
	})
}

func (h *V1Handler) handleIsActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	email := pathSuffix(r, "/is-active/")
	active, err := h.entitlementService.IsActive(r.Context(), email)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.ActiveStatusResponse{IsActive: active})
}

func (h *V1Handler) handleIsPaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	email := pathSuffix(r, "/is-paid/")
	paid, err := h.entitlementService.IsPaid(r.Context(), email)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.PaidStatusResponse{IsPaid: paid})
}

func (h *V1Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	redirectURL, err := h.paymentService.CreateSession(r.Context(), req.Email, req.Plan)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CreatePaymentResponse{RedirectURL: redirectURL})
}

func (h *V1Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	sessionID := query.Get("sessionId")
	email := query.Get("email")
	plan := models.PlanType(query.Get("plan"))

	if err := h.paymentService.ConfirmPayment(r.Context(), sessionID, email, plan); err != nil {
		monitoring.RecordBusinessEvent(r.Context(), models.ActionPaymentConfirmed, "failure")
		respondWithServiceError(w, r, err)
		return
	}

	monitoring.RecordBusinessEvent(r.Context(), models.ActionPaymentConfirmed, "success")
	http.Redirect(w, r, h.successRedirectURL, http.StatusSeeOther)
}

func (h *V1Handler) handleSetPrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.PriceTable
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.pricingService.SetPrices(r.Context(), &req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	table, err := h.pricingService.GetPrices(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, table)
}

func (h *V1Handler) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	table, err := h.pricingService.GetPrices(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, table)
}

func (h *V1Handler) handleAddSuccessStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.SuccessStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	story, err := h.storyService.CreateStory(r.Context(), &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, story)
}

func (h *V1Handler) handleEditSuccessStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	storyID := pathSuffix(r, "/edit-success-story/")
	if storyID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Story ID is required")
		return
	}

	var req models.SuccessStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	story, err := h.storyService.UpdateStory(r.Context(), storyID, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, story)
}

func (h *V1Handler) handleGetSuccessStories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stories, err := h.storyService.GetStories(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{
		Items: stories,
		Count: len(stories),
	})
}
