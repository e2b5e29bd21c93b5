package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/http/handlers"
)

type courierResponse struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	TransportType string `json:"transport_type"`
}

type stubCourierUsecase struct {
	getFn           func(ctx context.Context, id int64) (*domain.Courier, error)
	listFn          func(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error)
	registerFn      func(ctx context.Context, c *domain.Courier) (int64, error)
	updatePartialFn func(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	statusFn        func(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error)
	locationFn      func(ctx context.Context, id int64, p domain.Point) error
}

func (s *stubCourierUsecase) Get(ctx context.Context, id int64) (*domain.Courier, error) {
	return s.getFn(ctx, id)
}

func (s *stubCourierUsecase) List(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error) {
	return s.listFn(ctx, limit, offset, status)
}

func (s *stubCourierUsecase) Register(ctx context.Context, c *domain.Courier) (int64, error) {
	return s.registerFn(ctx, c)
}

func (s *stubCourierUsecase) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	return s.updatePartialFn(ctx, u)
}

func (s *stubCourierUsecase) UpdateStatus(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error) {
	return s.statusFn(ctx, id, status)
}

func (s *stubCourierUsecase) UpdateLocation(ctx context.Context, id int64, p domain.Point) error {
	return s.locationFn(ctx, id, p)
}

func courierRouter(uc *stubCourierUsecase) http.Handler {
	h := handlers.NewCourierHandler(testLogger(), uc)
	r := chi.NewRouter()
	r.Get("/couriers", h.List)
	r.Post("/couriers", h.Register)
	r.Get("/couriers/{id}", h.GetByID)
	r.Patch("/couriers/{id}", h.Update)
	r.Patch("/couriers/{id}/status", h.UpdateStatus)
	r.Put("/couriers/{id}/location", h.UpdateLocation)
	return r
}

func TestCourierHandler_GetByID_OK(t *testing.T) {
	t.Parallel()

	expected := &domain.Courier{
		ID:            99,
		Name:          "Artem",
		Phone:         "+70000000000",
		Status:        domain.StatusAvailable,
		TransportType: domain.TransportTypeBicycle,
	}

	uc := &stubCourierUsecase{
		getFn: func(ctx context.Context, id int64) (*domain.Courier, error) {
			require.Equal(t, expected.ID, id)
			return expected, nil
		},
	}

	rr := do(t, courierRouter(uc), http.MethodGet, "/couriers/99", "", 0)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp courierResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	require.NoError(t, err)
	require.Equal(t, expected.ID, resp.ID)
	require.Equal(t, expected.Name, resp.Name)
	require.Equal(t, "AVAILABLE", resp.Status)
	require.Equal(t, "BICYCLE", resp.TransportType)
}

func TestCourierHandler_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		getFn: func(context.Context, int64) (*domain.Courier, error) { return nil, apperr.NotFound },
	}

	rr := do(t, courierRouter(uc), http.MethodGet, "/couriers/1", "", 0)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCourierHandler_List_ParsesQuery(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		listFn: func(_ context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error) {
			require.NotNil(t, limit)
			require.Equal(t, 10, *limit)
			require.Nil(t, offset)
			require.NotNil(t, status)
			require.Equal(t, domain.StatusAvailable, *status)
			return []domain.Courier{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, nil
		},
	}
	h := courierRouter(uc)

	rr := do(t, h, http.MethodGet, "/couriers?limit=10&status=AVAILABLE", "", 0)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp []courierResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 2)

	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/couriers?limit=-1", "", 0).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/couriers?status=SLEEPING", "", 0).Code)
}

func TestCourierHandler_Register(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		registerFn: func(_ context.Context, c *domain.Courier) (int64, error) {
			require.Equal(t, int64(77), c.UserID)
			if c.Phone == "+79990000000" {
				return 0, apperr.Conflict
			}
			c.Status = domain.StatusOffline
			return 5, nil
		},
	}
	h := courierRouter(uc)

	rr := do(t, h, http.MethodPost, "/couriers", `{"name":"Ivan","phone":"+79991112233","transport_type":"CAR"}`, 77)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/couriers/5", rr.Header().Get("Location"))
	var resp courierResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, int64(5), resp.ID)
	require.Equal(t, "OFFLINE", resp.Status)

	rr = do(t, h, http.MethodPost, "/couriers", `{"name":"Ivan","phone":"+79990000000"}`, 77)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodPost, "/couriers", `{"name":"Ivan","status":"BUSY"}`, 77)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_Update(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		updatePartialFn: func(_ context.Context, u domain.PartialCourierUpdate) (bool, error) {
			require.Equal(t, int64(5), u.ID)
			require.NotNil(t, u.Name)
			require.Nil(t, u.Phone)
			return true, nil
		},
	}

	rr := do(t, courierRouter(uc), http.MethodPatch, "/couriers/5", `{"name":"Pavel"}`, 0)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCourierHandler_UpdateStatus(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		statusFn: func(_ context.Context, _ int64, status domain.CourierStatus) (domain.CourierStatus, error) {
			if !status.Settable() {
				return "", apperr.Invalid
			}
			// an active delivery keeps the courier BUSY
			return domain.StatusBusy, nil
		},
	}
	h := courierRouter(uc)

	rr := do(t, h, http.MethodPatch, "/couriers/5/status", `{"status":"AVAILABLE"}`, 0)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "BUSY", resp["status"])

	rr = do(t, h, http.MethodPatch, "/couriers/5/status", `{"status":"BUSY"}`, 0)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_UpdateLocation(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		locationFn: func(_ context.Context, id int64, p domain.Point) error {
			if id != 5 {
				return apperr.NotFound
			}
			require.Equal(t, domain.Point{Lat: 55.7, Lon: 37.6}, p)
			return nil
		},
	}
	h := courierRouter(uc)

	rr := do(t, h, http.MethodPut, "/couriers/5/location", `{"lat":55.7,"lon":37.6}`, 0)
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = do(t, h, http.MethodPut, "/couriers/6/location", `{"lat":55.7,"lon":37.6}`, 0)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
