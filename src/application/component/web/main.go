package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/application/service"
	"github.com/umpire-ci/umpire/src/config"
	"github.com/umpire-ci/umpire/src/domain"
	"github.com/umpire-ci/umpire/src/domain/repository"
)

type Web struct {
	Config config.WebConfig

	Logger             zerolog.Logger
	DecisionService    service.DecisionService
	DecisionLogService service.DecisionLogService
	BaselineService    service.BaselineService
	Monitoring         *config.Monitoring
	DecisionConfig     *domain.DecisionConfig
	Db                 config.PgxIface
}

func (self *Web) Start(ctx context.Context) error {
	self.Logger.Info().Str("listen", self.Config.Listen).Msg("Starting")

	server := &http.Server{
		Addr:         self.Config.Listen,
		Handler:      self.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			self.Logger.Err(err).Msg("While shutting down server")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithMessage(err, "While running server")
	}
	return nil
}

func (self *Web) router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true).UseEncodedPath()
	router.NotFoundHandler = http.NotFoundHandler()

	router.HandleFunc("/api/decision", self.authorized(self.ApiDecisionPost)).Methods(http.MethodPost)
	router.HandleFunc("/api/decision", self.ApiDecisionGet).Methods(http.MethodGet)
	router.HandleFunc("/api/decision/{id}", self.ApiDecisionIdGet).Methods(http.MethodGet)
	router.HandleFunc("/api/baseline/{metric}", self.ApiBaselineMetricGet).Methods(http.MethodGet)
	router.HandleFunc("/api/baseline/{metric}", self.authorized(self.ApiBaselineMetricPost)).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.HandlerFor(self.Monitoring.Registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		self.json(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	return router
}

func (self *Web) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if self.Config.BearerToken != "" &&
			r.Header.Get("Authorization") != "Bearer "+self.Config.BearerToken {
			self.error(w, errors.New("unauthorized"), http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type apiDecisionRequest struct {
	ChangedFiles   domain.ChangeSet      `json:"changed_files"`
	Samples        []domain.MetricSample `json:"samples"`
	AppendBaseline bool                  `json:"append_baseline"`
}

func (self *Web) ApiDecisionPost(w http.ResponseWriter, req *http.Request) {
	request := apiDecisionRequest{}
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		self.error(w, errors.WithMessage(err, "While decoding request body"), http.StatusBadRequest)
		return
	}

	var decision domain.Decision
	if err := pgx.BeginFunc(req.Context(), self.Db, func(tx pgx.Tx) error {
		var err error
		if decision, err = self.DecisionService.WithQuerier(tx).Decide(request.ChangedFiles, self.DecisionConfig, request.Samples, request.AppendBaseline); err != nil {
			return err
		}
		return self.DecisionLogService.WithQuerier(tx).Save(&decision)
	}); err != nil {
		self.Monitoring.Decisions.WithLabelValues("error").Inc()
		self.error(w, err, errStatus(err))
		return
	}

	self.observe(decision)
	self.json(w, decision, http.StatusOK)
}

func (self *Web) ApiDecisionGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.error(w, err, http.StatusBadRequest)
		return
	}

	decisions, err := self.DecisionLogService.GetAll(page)
	if err != nil {
		self.error(w, err, http.StatusInternalServerError)
		return
	}

	self.json(w, map[string]any{"page": page, "decisions": decisions}, http.StatusOK)
}

func (self *Web) ApiDecisionIdGet(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		self.error(w, errors.WithMessage(err, "While parsing decision ID"), http.StatusBadRequest)
		return
	}

	decision, err := self.DecisionLogService.GetById(id)
	if err != nil {
		self.error(w, err, http.StatusNotFound)
		return
	}

	self.json(w, decision, http.StatusOK)
}

func (self *Web) ApiBaselineMetricGet(w http.ResponseWriter, req *http.Request) {
	metric := mux.Vars(req)["metric"]

	page, err := getPage(req)
	if err != nil {
		self.error(w, err, http.StatusBadRequest)
		return
	}

	samples, err := self.BaselineService.GetPage(metric, page)
	if err != nil {
		self.error(w, err, http.StatusInternalServerError)
		return
	}

	self.json(w, map[string]any{"page": page, "samples": samples}, http.StatusOK)
}

func (self *Web) ApiBaselineMetricPost(w http.ResponseWriter, req *http.Request) {
	metric := mux.Vars(req)["metric"]

	sample := domain.MetricSample{}
	if err := json.NewDecoder(req.Body).Decode(&sample); err != nil {
		self.error(w, errors.WithMessage(err, "While decoding request body"), http.StatusBadRequest)
		return
	}
	sample.Metric = metric
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}

	if _, declared := self.DecisionConfig.Regression.Spec(metric); !declared {
		self.error(w, domain.ConfigurationError{Scope: "metric", Name: metric, Reason: "not declared in regression policy"}, http.StatusBadRequest)
		return
	}

	if err := pgx.BeginFunc(req.Context(), self.Db, func(tx pgx.Tx) error {
		return self.BaselineService.WithQuerier(tx).Append(&sample)
	}); err != nil {
		self.error(w, err, http.StatusInternalServerError)
		return
	}

	self.json(w, sample, http.StatusOK)
}

func (self *Web) observe(decision domain.Decision) {
	outcome := "planned"
	if decision.Regressed() {
		outcome = "regressed"
	}
	self.Monitoring.Decisions.WithLabelValues(outcome).Inc()
	self.Monitoring.OptimizationScore.Observe(decision.Plan.Score)

	for _, verdict := range decision.Verdicts {
		verdict := verdict
		if class, err := verdict.Class.String(); err == nil {
			self.Monitoring.Verdicts.WithLabelValues(class).Inc()
		}
	}
}

func (self *Web) json(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		self.Logger.Err(err).Msg("While encoding response")
	}
}

func (self *Web) error(w http.ResponseWriter, err error, status int) {
	self.Logger.Warn().Err(err).Int("status", status).Msg("Request failed")
	self.json(w, map[string]string{"error": err.Error()}, status)
}

func errStatus(err error) int {
	var configurationError domain.ConfigurationError
	var inputError domain.InputError
	switch {
	case errors.As(err, &configurationError), errors.As(err, &inputError):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func getPage(req *http.Request) (*repository.Page, error) {
	page := repository.Page{Limit: 10}

	query := req.URL.Query()
	if v := query.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err != nil {
			return nil, errors.WithMessage(err, "While parsing limit")
		} else {
			page.Limit = limit
		}
	}
	if v := query.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err != nil {
			return nil, errors.WithMessage(err, "While parsing offset")
		} else {
			page.Offset = offset
		}
	}
	if page.Limit <= 0 || page.Limit > 100 || page.Offset < 0 {
		return nil, errors.New("limit must be in 1-100 and offset not negative")
	}
	return &page, nil
}
