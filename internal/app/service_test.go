package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/entretien/internal/app"
	"github.com/okian/entretien/internal/domain/schema"
	"github.com/okian/entretien/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func validRecord() json.RawMessage {
	return json.RawMessage(`{
		"age": 30, "diplome": "BTS", "note_anglais": 85, "experience": 5,
		"entreprises_precedentes": 2, "distance_km": 4.5, "score_entretien": 8.2,
		"score_competence": 7.5, "score_personnalite": 80, "sexe": "F"
	}`)
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithArtifactPath(filepath.Join("testdata", "pipeline_entretien.json")),
		service.WithWorkerCount(2),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service pointed at a missing artifact", t, func() {
		svc := service.New(service.WithArtifactPath("testdata/absent.json"))

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then startup should fail and stay unready", func() {
				So(err, ShouldNotBeNil)
				So(svc.Ready(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a service with the frozen artifact", t, func() {
		svc := startedService(t)

		Convey("Then it should be ready with the artifact version published", func() {
			So(svc.Ready(), ShouldBeTrue)
			So(svc.ArtifactVersion(), ShouldEqual, "2025.08.01")
		})

		Convey("And starting again should be a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("And stats should expose the serving state", func() {
			stats := svc.GetStats()
			So(stats["ready"], ShouldEqual, true)
			So(stats["artifactVersion"], ShouldEqual, "2025.08.01")
			So(stats["maxBatchSize"], ShouldEqual, 256)
		})
	})
}

func TestPredictOne(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When predicting a valid record", func() {
			pred, err := svc.PredictOne(ctx, validRecord())

			Convey("Then it should return a consistent prediction", func() {
				So(err, ShouldBeNil)
				So(pred.Probability, ShouldBeBetweenOrEqual, 0, 1)
				if pred.Probability >= 0.5 {
					So(pred.Label, ShouldEqual, 1)
				} else {
					So(pred.Label, ShouldEqual, 0)
				}
			})

			Convey("And repeating the identical record should be deterministic", func() {
				again, err := svc.PredictOne(ctx, validRecord())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, pred)
			})
		})

		Convey("When predicting an invalid record", func() {
			_, err := svc.PredictOne(ctx, json.RawMessage(`{"age": "thirty"}`))

			Convey("Then a validation error naming the fields should be returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, schema.ErrValidation), ShouldBeTrue)
				var verr *schema.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				names := make([]string, 0, len(verr.Fields))
				for _, fe := range verr.Fields {
					names = append(names, fe.Field)
				}
				So(names, ShouldContain, "age")
				So(names, ShouldContain, "sexe")
			})
		})
	})

	Convey("Given an unstarted service", t, func() {
		svc := service.New()

		Convey("When predicting", func() {
			_, err := svc.PredictOne(context.Background(), validRecord())

			Convey("Then it should refuse with ErrNotReady", func() {
				So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
			})
		})
	})
}

func TestPredictBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t, service.WithMaxBatchSize(5))
		ctx := context.Background()

		Convey("When predicting a batch with one invalid element", func() {
			batch := []json.RawMessage{
				validRecord(),
				json.RawMessage(`{"age": -1}`),
				validRecord(),
			}
			items, err := svc.PredictBatch(ctx, batch)

			Convey("Then order and count should be preserved with per-item errors", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 3)
				So(items[0].Err, ShouldBeNil)
				So(items[0].Prediction, ShouldNotBeNil)
				So(items[1].Err, ShouldNotBeNil)
				So(items[1].Prediction, ShouldBeNil)
				So(items[2].Err, ShouldBeNil)
				So(items[2].Prediction, ShouldNotBeNil)
			})

			Convey("And batch results should match single-record predictions", func() {
				So(err, ShouldBeNil)
				single, err := svc.PredictOne(ctx, validRecord())
				So(err, ShouldBeNil)
				So(*items[0].Prediction, ShouldResemble, single)
				So(*items[2].Prediction, ShouldResemble, single)
			})
		})

		Convey("When predicting a larger ordered batch", func() {
			batch := make([]json.RawMessage, 5)
			for i := range batch {
				batch[i] = json.RawMessage(fmt.Sprintf(`{
					"age": %d, "diplome": "Master", "note_anglais": 80, "experience": %d,
					"entreprises_precedentes": 1, "distance_km": 5, "score_entretien": 7,
					"score_competence": 7, "score_personnalite": 75, "sexe": "M"
				}`, 25+i, i))
			}
			items, err := svc.PredictBatch(ctx, batch)

			Convey("Then element i should equal PredictOne of input i", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 5)
				for i := range batch {
					single, err := svc.PredictOne(ctx, batch[i])
					So(err, ShouldBeNil)
					So(items[i].Err, ShouldBeNil)
					So(*items[i].Prediction, ShouldResemble, single)
				}
			})
		})

		Convey("When the batch is empty", func() {
			_, err := svc.PredictBatch(ctx, nil)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrEmptyBatch), ShouldBeTrue)
			})
		})

		Convey("When the batch exceeds the configured maximum", func() {
			batch := make([]json.RawMessage, 6)
			for i := range batch {
				batch[i] = validRecord()
			}
			_, err := svc.PredictBatch(ctx, batch)

			Convey("Then it should be rejected before any inference", func() {
				So(errors.Is(err, service.ErrBatchTooLarge), ShouldBeTrue)
			})
		})
	})
}

func TestStrictFields(t *testing.T) {
	Convey("Given a service in strict field mode", t, func() {
		svc := startedService(t, service.WithStrictFields(true))

		Convey("When a record carries an unknown field", func() {
			raw := json.RawMessage(`{
				"age": 30, "diplome": "BTS", "note_anglais": 85, "experience": 5,
				"entreprises_precedentes": 2, "distance_km": 4.5, "score_entretien": 8.2,
				"score_competence": 7.5, "score_personnalite": 80, "sexe": "F",
				"pretention_salariale": 45000
			}`)
			_, err := svc.PredictOne(context.Background(), raw)

			Convey("Then it should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, schema.ErrValidation), ShouldBeTrue)
			})
		})
	})
}
