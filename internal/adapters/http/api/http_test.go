package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kuiperworks/kerf/internal/adapters/http/api"
	repository "github.com/kuiperworks/kerf/internal/adapters/repository"
	"github.com/kuiperworks/kerf/internal/domain/alerts"
	"github.com/kuiperworks/kerf/internal/domain/apqp"
	"github.com/kuiperworks/kerf/internal/domain/model"
	"github.com/kuiperworks/kerf/internal/domain/pareto"
	"github.com/kuiperworks/kerf/internal/domain/quality"
	"github.com/kuiperworks/kerf/internal/domain/scorecard"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies with canned data.
type mockDependencies struct {
	seen           map[string]bool
	enqueueSuccess bool
	enqueued       []model.LotReport

	suppliers  map[string]model.Supplier
	lots       map[string]model.LotReport
	chart      []model.LotReport
	limits     quality.ControlLimitsResult
	chartErr   error
	failures   []model.FailureRecord
	paretoOut  []pareto.Entry
	milestones []model.MilestoneCard
	cards      []scorecard.Card
	summary    scorecard.Summary
	alertFeed  []alerts.Alert
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:           make(map[string]bool),
		enqueueSuccess: true,
		suppliers:      make(map[string]model.Supplier),
		lots:           make(map[string]model.LotReport),
	}
}

func (m *mockDependencies) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDependencies) Unrecord(ctx context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDependencies) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDependencies) Enqueue(ctx context.Context, report model.LotReport) bool {
	if !m.enqueueSuccess {
		return false
	}
	m.enqueued = append(m.enqueued, report)
	return true
}

func (m *mockDependencies) PutSupplier(ctx context.Context, supplier model.Supplier) error {
	m.suppliers[supplier.ID] = supplier
	return nil
}

func (m *mockDependencies) Supplier(ctx context.Context, id string) (model.Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return model.Supplier{}, fmt.Errorf("supplier %s: %w", id, repository.ErrNotFound)
	}
	return s, nil
}

func (m *mockDependencies) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	out := make([]model.Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockDependencies) Lot(ctx context.Context, lotID string) (model.LotReport, error) {
	r, ok := m.lots[lotID]
	if !ok {
		return model.LotReport{}, fmt.Errorf("lot %s: %w", lotID, repository.ErrNotFound)
	}
	return r, nil
}

func (m *mockDependencies) ControlChart(ctx context.Context, supplierID string, window int) ([]model.LotReport, quality.ControlLimitsResult, error) {
	if m.chartErr != nil {
		return nil, quality.ControlLimitsResult{}, m.chartErr
	}
	return m.chart, m.limits, nil
}

func (m *mockDependencies) RecordFailure(ctx context.Context, failure model.FailureRecord) (model.FailureRecord, error) {
	if failure.ID == "" {
		failure.ID = fmt.Sprintf("f-%d", len(m.failures)+1)
	}
	if failure.Status == "" {
		failure.Status = model.FailureOpen
	}
	m.failures = append(m.failures, failure)
	return failure, nil
}

func (m *mockDependencies) Failures(ctx context.Context, status string) ([]model.FailureRecord, error) {
	if status == "" {
		return m.failures, nil
	}
	var out []model.FailureRecord
	for _, f := range m.failures {
		if f.Status == status {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockDependencies) Pareto(ctx context.Context, top int) ([]pareto.Entry, error) {
	return m.paretoOut, nil
}

func (m *mockDependencies) PutMilestone(ctx context.Context, card model.MilestoneCard) error {
	m.milestones = append(m.milestones, card)
	return nil
}

func (m *mockDependencies) Board(ctx context.Context) ([]apqp.PhaseGroup, error) {
	groups := make([]apqp.PhaseGroup, 0, len(model.Phases()))
	for _, phase := range model.Phases() {
		group := apqp.PhaseGroup{Phase: phase}
		for _, card := range m.milestones {
			if card.Phase == phase {
				group.Cards = append(group.Cards, card)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (m *mockDependencies) Scorecard(ctx context.Context) ([]scorecard.Card, error) {
	return m.cards, nil
}

func (m *mockDependencies) Summary(ctx context.Context) (scorecard.Summary, error) {
	return m.summary, nil
}

func (m *mockDependencies) RecentAlerts(ctx context.Context, limit int) []alerts.Alert {
	if limit > 0 && limit < len(m.alertFeed) {
		return m.alertFeed[:limit]
	}
	return m.alertFeed
}

func (m *mockDependencies) Rank(ctx context.Context, candidates []quality.Candidate, weights map[string]int) ([]quality.RankedCandidate, error) {
	if len(weights) == 0 {
		weights = map[string]int{"audit_score": 40, "sample_yield": 40, "quoted_cost": 20}
	}
	return quality.WeightedScores(candidates, weights)
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestServer(deps *mockDependencies) *http.ServeMux {
	stats := &mockStatsProvider{stats: map[string]interface{}{"queue_size": 0}}
	server := api.NewServer(deps, stats, api.DefaultLimits())
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestLotIngest(t *testing.T) {
	Convey("Given a server with a working queue", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		validLot := `{
			"report_id": "r-1",
			"supplier_id": "sup-1",
			"lot_id": "lot-1",
			"part_number": "PN-100",
			"inspection_date": "2026-03-01T08:00:00Z",
			"lot_size": 1000,
			"defect_count": 3
		}`

		Convey("When posting a valid lot report", func() {
			w := postJSON(mux, "/lots", validLot)

			Convey("Then it should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"accepted"`)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].LotID, ShouldEqual, "lot-1")
			})

			Convey("And posting the same report again should be a duplicate", func() {
				w2 := postJSON(mux, "/lots", validLot)

				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When posting a report with an invalid defect count", func() {
			w := postJSON(mux, "/lots", `{
				"report_id": "r-2",
				"supplier_id": "sup-1",
				"lot_id": "lot-2",
				"inspection_date": "2026-03-01T08:00:00Z",
				"lot_size": 100,
				"defect_count": 200
			}`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting malformed JSON", func() {
			w := postJSON(mux, "/lots", `{not json`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a server with a full queue", t, func() {
		deps := newMockDependencies()
		deps.enqueueSuccess = false
		mux := newTestServer(deps)

		Convey("When posting a valid lot report", func() {
			w := postJSON(mux, "/lots", `{
				"report_id": "r-3",
				"supplier_id": "sup-1",
				"lot_id": "lot-3",
				"inspection_date": "2026-03-01T08:00:00Z",
				"lot_size": 500,
				"defect_count": 1
			}`)

			Convey("Then it should return backpressure", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			})

			Convey("And the report ID should be retryable", func() {
				So(deps.seen["r-3"], ShouldBeFalse)
			})
		})
	})
}

func TestLotLookup(t *testing.T) {
	Convey("Given a server with a stored lot", t, func() {
		deps := newMockDependencies()
		deps.lots["lot-9"] = model.LotReport{
			ReportID:       "r-9",
			SupplierID:     "sup-1",
			LotID:          "lot-9",
			InspectionDate: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
			LotSize:        1000,
			DefectCount:    5,
			Yield:          0.995,
			Flagged:        true,
		}
		mux := newTestServer(deps)

		Convey("When fetching the lot", func() {
			w := get(mux, "/lots/lot-9")

			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["lot_id"], ShouldEqual, "lot-9")
			So(body["dppm"], ShouldEqual, 5000)
			So(body["flagged"], ShouldEqual, true)
		})

		Convey("When fetching an unknown lot", func() {
			w := get(mux, "/lots/missing")

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSupplierRegistry(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		Convey("When registering a valid supplier", func() {
			w := postJSON(mux, "/suppliers", `{
				"id": "sup-1",
				"name": "Tessera Foundry",
				"type": "foundry",
				"location": "Dresden",
				"health_score": 92
			}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.suppliers, ShouldContainKey, "sup-1")

			Convey("And it should be retrievable by ID", func() {
				w2 := get(mux, "/suppliers/sup-1")

				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Body.String(), ShouldContainSubstring, "Tessera Foundry")
			})

			Convey("And it should appear in the listing", func() {
				w2 := get(mux, "/suppliers")

				So(w2.Code, ShouldEqual, http.StatusOK)

				var listed []map[string]interface{}
				So(json.Unmarshal(w2.Body.Bytes(), &listed), ShouldBeNil)
				So(listed, ShouldHaveLength, 1)
			})
		})

		Convey("When registering a supplier with an unknown type", func() {
			w := postJSON(mux, "/suppliers", `{"id": "sup-2", "name": "X", "type": "distributor"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching an unknown supplier", func() {
			w := get(mux, "/suppliers/ghost")

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestControlChartEndpoint(t *testing.T) {
	Convey("Given a server with chart data", t, func() {
		deps := newMockDependencies()
		deps.chart = []model.LotReport{
			{LotID: "lot-1", LotSize: 1000, DefectCount: 2},
			{LotID: "lot-2", LotSize: 1000, DefectCount: 40},
		}
		deps.limits = quality.ControlLimitsResult{
			CenterLine:  0.021,
			UCL:         0.0346,
			LCL:         0.0074,
			MeanLotSize: 1000,
			Flags:       []bool{true, true},
		}
		mux := newTestServer(deps)

		Convey("When fetching the chart", func() {
			w := get(mux, "/suppliers/sup-1/control-chart")

			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["supplier_id"], ShouldEqual, "sup-1")
			points := body["points"].([]interface{})
			So(points, ShouldHaveLength, 2)
			first := points[0].(map[string]interface{})
			So(first["out_of_control"], ShouldEqual, true)
		})

		Convey("When requesting a window above the cap", func() {
			w := get(mux, "/suppliers/sup-1/control-chart?window=9999")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "window_exceeded")
		})

		Convey("When requesting a non-numeric window", func() {
			w := get(mux, "/suppliers/sup-1/control-chart?window=abc")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a supplier with no lot history", t, func() {
		deps := newMockDependencies()
		deps.chartErr = fmt.Errorf("supplier sup-1: %w", repository.ErrNoData)
		mux := newTestServer(deps)

		Convey("When fetching the chart", func() {
			w := get(mux, "/suppliers/sup-1/control-chart")

			So(w.Code, ShouldEqual, http.StatusConflict)
		})
	})
}

func TestScorecardEndpoints(t *testing.T) {
	Convey("Given a server with scorecard data", t, func() {
		deps := newMockDependencies()
		deps.cards = []scorecard.Card{
			{SupplierID: "sup-1", Name: "Tessera", HealthScore: 92, HealthRating: scorecard.RatingGood, HasData: true, DPPM: 80, DPPMRating: scorecard.RatingGood},
			{SupplierID: "sup-2", Name: "Osiris OSAT", HealthScore: 64, HealthRating: scorecard.RatingCritical},
		}
		deps.summary = scorecard.Summary{Suppliers: 2, MeanHealth: 78, ActiveIssues: 1}
		mux := newTestServer(deps)

		Convey("When fetching the scorecard", func() {
			w := get(mux, "/scorecard")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"health_rating":"good"`)
			So(w.Body.String(), ShouldContainSubstring, `"health_rating":"critical"`)
		})

		Convey("When fetching the summary", func() {
			w := get(mux, "/summary")

			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["suppliers"], ShouldEqual, 2)
			So(body["mean_health"], ShouldEqual, 78)
		})
	})
}

func TestFailureEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		Convey("When recording a failure", func() {
			w := postJSON(mux, "/failures", `{
				"supplier_id": "sup-1",
				"part_number": "PN-100",
				"mode": "wire bond lift"
			}`)

			So(w.Code, ShouldEqual, http.StatusCreated)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["id"], ShouldNotBeEmpty)
			So(body["status"], ShouldEqual, "open")

			Convey("And listing by status should find it", func() {
				w2 := get(mux, "/failures?status=open")

				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Body.String(), ShouldContainSubstring, "wire bond lift")
			})
		})

		Convey("When recording a failure without a mode", func() {
			w := postJSON(mux, "/failures", `{"supplier_id": "sup-1"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing with an unknown status", func() {
			w := get(mux, "/failures?status=bogus")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestParetoEndpoint(t *testing.T) {
	Convey("Given a server with Pareto data", t, func() {
		deps := newMockDependencies()
		deps.paretoOut = []pareto.Entry{
			{Mode: "wire bond lift", Count: 6, Share: 0.6, Cumulative: 0.6},
			{Mode: "die crack", Count: 4, Share: 0.4, Cumulative: 1.0},
		}
		mux := newTestServer(deps)

		Convey("When fetching the top failure modes", func() {
			w := get(mux, "/pareto/failure-modes")

			So(w.Code, ShouldEqual, http.StatusOK)

			var entries []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0]["mode"], ShouldEqual, "wire bond lift")
		})

		Convey("When requesting too many modes", func() {
			w := get(mux, "/pareto/failure-modes?top=500")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "top_exceeded")
		})
	})
}

func TestAPQPEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		Convey("When posting a milestone in a valid phase", func() {
			w := postJSON(mux, "/apqp", `{
				"part_number": "PN-100",
				"phase": "validation",
				"owner": "jordan"
			}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.milestones, ShouldHaveLength, 1)
			So(deps.milestones[0].Status, ShouldEqual, model.MilestoneOnTrack)

			Convey("And the board should place it in the validation column", func() {
				w2 := get(mux, "/apqp/board")

				So(w2.Code, ShouldEqual, http.StatusOK)

				var groups []map[string]interface{}
				So(json.Unmarshal(w2.Body.Bytes(), &groups), ShouldBeNil)
				So(groups, ShouldHaveLength, 5)
				So(groups[3]["phase"], ShouldEqual, "validation")
				So(groups[3]["cards"], ShouldHaveLength, 1)
			})
		})

		Convey("When posting a milestone in an unknown phase", func() {
			w := postJSON(mux, "/apqp", `{"part_number": "PN-100", "phase": "shipping"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestAlertsEndpoint(t *testing.T) {
	Convey("Given a server with alerts in the feed", t, func() {
		deps := newMockDependencies()
		deps.alertFeed = []alerts.Alert{
			{ID: "a-1", Kind: alerts.KindExcursion, Severity: alerts.SeverityWarning, SupplierID: "sup-1"},
			{ID: "a-2", Kind: alerts.KindDPPMCritical, Severity: alerts.SeverityCritical, SupplierID: "sup-2"},
		}
		mux := newTestServer(deps)

		Convey("When fetching all alerts", func() {
			w := get(mux, "/alerts")

			So(w.Code, ShouldEqual, http.StatusOK)

			var feed []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &feed), ShouldBeNil)
			So(feed, ShouldHaveLength, 2)
		})

		Convey("When fetching with a limit", func() {
			w := get(mux, "/alerts?limit=1")

			var feed []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &feed), ShouldBeNil)
			So(feed, ShouldHaveLength, 1)
		})

		Convey("When the limit is not a number", func() {
			w := get(mux, "/alerts?limit=many")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCalculatorEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		Convey("When computing control limits for a valid series", func() {
			w := postJSON(mux, "/spc/control-limits", `{
				"samples": [
					{"lot_id": "l1", "lot_size": 1000, "defect_count": 2},
					{"lot_id": "l2", "lot_size": 1000, "defect_count": 3},
					{"lot_id": "l3", "lot_size": 1000, "defect_count": 1}
				]
			}`)

			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["center_line"], ShouldAlmostEqual, 0.002, 1e-9)
			So(body["flags"], ShouldHaveLength, 3)
		})

		Convey("When computing control limits for an empty series", func() {
			w := postJSON(mux, "/spc/control-limits", `{"samples": []}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid_input")
		})

		Convey("When computing capability for valid measurements", func() {
			w := postJSON(mux, "/capability", `{
				"measurements": [9.9, 10.0, 10.1, 10.0, 9.95, 10.05],
				"usl": 10.5,
				"lsl": 9.5
			}`)

			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["cpk"].(float64), ShouldBeGreaterThan, 1.0)
		})

		Convey("When computing capability with inverted spec limits", func() {
			w := postJSON(mux, "/capability", `{"measurements": [1, 2, 3], "usl": 0, "lsl": 10}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When ranking candidates with explicit weights", func() {
			w := postJSON(mux, "/rankings", `{
				"candidates": [
					{"name": "alpha", "sub_scores": {"audit_score": 90, "sample_yield": 80, "quoted_cost": 70}},
					{"name": "beta", "sub_scores": {"audit_score": 60, "sample_yield": 95, "quoted_cost": 85}}
				],
				"weights": {"audit_score": 50, "sample_yield": 30, "quoted_cost": 20}
			}`)

			So(w.Code, ShouldEqual, http.StatusOK)

			var ranked []map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &ranked), ShouldBeNil)
			So(ranked, ShouldHaveLength, 2)
			So(ranked[0]["name"], ShouldEqual, "alpha")
			So(ranked[0]["rank"], ShouldEqual, 1)
		})

		Convey("When ranking with weights that do not sum to 100", func() {
			w := postJSON(mux, "/rankings", `{
				"candidates": [{"name": "alpha", "sub_scores": {"audit_score": 90}}],
				"weights": {"audit_score": 50}
			}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When ranking an empty candidate list", func() {
			w := postJSON(mux, "/rankings", `{"candidates": []}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := newMockDependencies()
		mux := newTestServer(deps)

		Convey("When fetching stats", func() {
			w := get(mux, "/stats")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			So(w.Body.String(), ShouldContainSubstring, "queue_size")
		})

		Convey("When scraping /healthz", func() {
			w := get(mux, "/healthz")

			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}
