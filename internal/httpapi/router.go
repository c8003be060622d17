package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterBiosignalRoutes 注册全部分析接口路由
func (r *Router) RegisterBiosignalRoutes(h *BiosignalHandler) {
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		// ServeMux 的 "/" 兜底所有未知路径
		if req.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Root(w, req)
	})

	r.Handle("/api/v1/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Health(w, req)
	})

	r.Handle("/api/v1/connect", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Connect(w, req)
	})

	r.Handle("/api/v1/stream", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Stream(w, req)
	})

	r.Handle("/api/v1/predict", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Predict(w, req)
	})

	r.Handle("/api/v1/sessions", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CreateSession(w, req)
	})

	// sessions/{id}、sessions/{id}/end、sessions/{id}/report.xlsx
	r.Handle("/api/v1/sessions/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/sessions/")
		switch {
		case rest == "":
			writeJSON(w, http.StatusNotFound, Fail("session id required"))
		case strings.HasSuffix(rest, "/end"):
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.EndSession(w, req, strings.TrimSuffix(rest, "/end"))
		case strings.HasSuffix(rest, "/report.xlsx"):
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.SessionReport(w, req, strings.TrimSuffix(rest, "/report.xlsx"))
		case !strings.Contains(rest, "/"):
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.GetSession(w, req, rest)
		default:
			writeJSON(w, http.StatusNotFound, Fail("not found"))
		}
	})

	r.Handle("/api/v1/logs/processing", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ProcessingLogs(w, req)
	})

	r.Handle("/api/v1/demo/scenario", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.DemoScenario(w, req)
	})

	r.Handle("/ws/stream", h.StreamWS)
}
