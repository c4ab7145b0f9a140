package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/entretien/internal/adapters/http/api"
	service "github.com/okian/entretien/internal/app"
	"github.com/okian/entretien/internal/domain/model"
	"github.com/okian/entretien/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockService struct {
	ready      bool
	version    string
	predictErr error
	prediction model.Prediction
	batchErr   error
	batch      []service.BatchItem
}

func (m *mockService) PredictOne(ctx context.Context, raw json.RawMessage) (model.Prediction, error) {
	if m.predictErr != nil {
		return model.Prediction{}, m.predictErr
	}
	return m.prediction, nil
}

func (m *mockService) PredictBatch(ctx context.Context, raws []json.RawMessage) ([]service.BatchItem, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return m.batch, nil
}

func (m *mockService) Ready() bool { return m.ready }

func (m *mockService) ArtifactVersion() string { return m.version }

func (m *mockService) GetStats() map[string]interface{} {
	return map[string]interface{}{"ready": m.ready}
}

func newTestServer(m *mockService) *httptest.Server {
	mux := http.NewServeMux()
	srv := api.NewServer(m, m)
	srv.Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestHandlePostPredict(t *testing.T) {
	Convey("Given a ready prediction service", t, func() {
		mock := &mockService{
			ready:      true,
			version:    "2025.08.01",
			prediction: model.Prediction{Label: 1, Probability: 0.8731},
		}
		ts := newTestServer(mock)
		defer ts.Close()

		Convey("When posting a candidate record", func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"age":30}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the prediction should be returned with the wire field names", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body map[string]json.Number
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["prediction"].String(), ShouldEqual, "1")
				So(body["probabilite_retenu"].String(), ShouldEqual, "0.8731")
			})

			Convey("And a request id should be echoed", func() {
				So(resp.Header.Get("X-Request-ID"), ShouldNotBeEmpty)
			})
		})

		Convey("When the caller supplies a request id", func() {
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/predict", strings.NewReader(`{"age":30}`))
			req.Header.Set("X-Request-ID", "req-42")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the same id should come back", func() {
				So(resp.Header.Get("X-Request-ID"), ShouldEqual, "req-42")
			})
		})

		Convey("When the body is not valid JSON", func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{broken`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then a 400 should be returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(ts.URL + "/predict")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a service that rejects the record", t, func() {
		mock := &mockService{
			ready: true,
			predictErr: &schema.ValidationError{Fields: []schema.FieldError{
				{Field: "age", Value: "thirty", Reason: "must be an integer"},
				{Field: "sexe", Value: nil, Reason: "is required"},
			}},
		}
		ts := newTestServer(mock)
		defer ts.Close()

		Convey("When posting the record", func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"age":"thirty"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then a 400 naming every offending field should be returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				var body struct {
					Code   string              `json:"code"`
					Fields []schema.FieldError `json:"fields"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "validation_error")
				So(len(body.Fields), ShouldEqual, 2)
				So(body.Fields[0].Field, ShouldEqual, "age")
				So(body.Fields[1].Field, ShouldEqual, "sexe")
			})
		})
	})

	Convey("Given a saturated service", t, func() {
		mock := &mockService{ready: true, predictErr: service.ErrBusy}
		ts := newTestServer(mock)
		defer ts.Close()

		Convey("When posting a record", func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"age":30}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
		})
	})

	Convey("Given an unready service", t, func() {
		mock := &mockService{predictErr: service.ErrNotReady}
		ts := newTestServer(mock)
		defer ts.Close()

		Convey("When posting a record", func() {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"age":30}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestHandlePostBatch(t *testing.T) {
	Convey("Given a service with one failing batch element", t, func() {
		good := model.Prediction{Label: 1, Probability: 0.9012}
		mock := &mockService{
			ready: true,
			batch: []service.BatchItem{
				{Prediction: &good},
				{Err: &schema.ValidationError{Fields: []schema.FieldError{
					{Field: "age", Value: float64(-1), Reason: "must be between 15 and 70"},
				}}},
				{Prediction: &good},
			},
		}
		ts := newTestServer(mock)
		defer ts.Close()

		Convey("When posting a batch of three records", func() {
			resp, err := http.Post(ts.URL+"/predict/batch", "application/json",
				strings.NewReader(`[{"age":30},{"age":-1},{"age":40}]`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the response should be positionally aligned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body []map[string]json.RawMessage
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(len(body), ShouldEqual, 3)
				So(body[0], ShouldContainKey, "prediction")
				So(body[0], ShouldContainKey, "probabilite_retenu")
				So(body[1], ShouldContainKey, "error")
				So(body[1], ShouldNotContainKey, "prediction")
				So(body[2], ShouldContainKey, "prediction")
			})
		})
	})

	Convey("Given a service enforcing batch limits", t, func() {
		ts := newTestServer(&mockService{ready: true, batchErr: service.ErrBatchTooLarge})
		defer ts.Close()

		Convey("When the batch exceeds the maximum", func() {
			resp, err := http.Post(ts.URL+"/predict/batch", "application/json", strings.NewReader(`[{},{}]`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})

	Convey("Given any service", t, func() {
		ts := newTestServer(&mockService{ready: true, batchErr: service.ErrEmptyBatch})
		defer ts.Close()

		Convey("When the batch is empty", func() {
			resp, err := http.Post(ts.URL+"/predict/batch", "application/json", strings.NewReader(`[]`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not an array", func() {
			resp, err := http.Post(ts.URL+"/predict/batch", "application/json", strings.NewReader(`{"age":30}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given a ready service", t, func() {
		ts := newTestServer(&mockService{ready: true, version: "2025.08.01"})
		defer ts.Close()

		Convey("When checking health", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should report ok with the artifact version", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
				So(body["artifact_version"], ShouldEqual, "2025.08.01")
			})
		})
	})

	Convey("Given an unready service", t, func() {
		ts := newTestServer(&mockService{})
		defer ts.Close()

		Convey("When checking health", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestHandleStats(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(&mockService{ready: true})
		defer ts.Close()

		Convey("When requesting stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the provider snapshot should be returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["ready"], ShouldEqual, true)
			})
		})
	})
}

func TestHandleMetrics(t *testing.T) {
	Convey("Given a running server", t, func() {
		ts := newTestServer(&mockService{ready: true})
		defer ts.Close()

		Convey("When scraping metrics", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
