// Package gateway implements the reverse-proxy front door that forwards
// requests under /plugin-api/{plugin}/* to the HTTP server a plugin
// registered via PluginAPIInfo, using the base URL the scheduler persisted
// in the telemetry store (internal/telemetry.Store.GetAllPluginAPIs).
package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

// MaxBodyBytes bounds the size of a proxied request body. A request whose
// body is larger than this is still forwarded, but with an empty body.
const MaxBodyBytes = 1 << 20 // 1 MiB

// Gateway resolves plugin names to their registered base URL and proxies
// HTTP traffic to them.
type Gateway struct {
	store        telemetry.Store
	log          zerolog.Logger
	apiKeyHashes []string
}

// New constructs a Gateway backed by store.
func New(store telemetry.Store, log zerolog.Logger) *Gateway {
	return &Gateway{store: store, log: log}
}

// SetAPIKeyHashes configures the bcrypt hashes RegisterRoutes checks
// incoming requests against. An empty or nil slice (the default) leaves
// the proxy open, matching the original's permissive per-plugin
// authorization model.
func (g *Gateway) SetAPIKeyHashes(hashes []string) {
	g.apiKeyHashes = hashes
}

// RegisterRoutes wires the catch-all proxy route onto router. When
// SetAPIKeyHashes has configured at least one hash, every proxied request
// must present a matching X-Gateway-API-Key header.
//
// Route: ANY /plugin-api/:plugin/*rest
func (g *Gateway) RegisterRoutes(router gin.IRouter) {
	handlers := []gin.HandlerFunc{}
	if len(g.apiKeyHashes) > 0 {
		handlers = append(handlers, RequireAPIKey(g.apiKeyHashes))
	}
	handlers = append(handlers, g.handleProxy)

	router.Any("/plugin-api/:plugin/*rest", handlers...)
	router.Any("/plugin-api/:plugin", handlers...)
}

// CORSMiddleware allows any origin to call the gateway. Plugin HTTP APIs
// are expected to be dashboards/widgets embedded from arbitrary origins,
// so the gateway itself stays permissive; authorization (where a plugin
// API needs it) is the plugin's own concern, not the gateway's.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (g *Gateway) handleProxy(c *gin.Context) {
	pluginName := c.Param("plugin")
	if pluginName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plugin name is required"})
		return
	}

	rest := c.Param("rest")
	if rest == "" {
		rest = "/"
	}

	apis, err := g.store.GetAllPluginAPIs(c.Request.Context())
	if err != nil {
		g.log.Error().Err(err).Msg("failed to look up registered plugin APIs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve plugin API registry"})
		return
	}

	var baseURL string
	for _, entry := range apis {
		if entry.Plugin == pluginName {
			baseURL = entry.BaseURL
			break
		}
	}
	if baseURL == "" {
		c.String(http.StatusNotFound, "no API registered for plugin %q", pluginName)
		return
	}

	target, err := url.Parse(baseURL)
	if err != nil {
		g.log.Error().Str("plugin", pluginName).Str("base_url", baseURL).Err(err).Msg("registered plugin base URL is not a valid URL")
		c.JSON(http.StatusBadGateway, gin.H{"error": "invalid upstream address"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil || len(body) > MaxBodyBytes {
		body = nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Request.ContentLength = int64(len(body))
	c.Request.TransferEncoding = nil

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = joinPath(target.Path, rest)
		req.Host = target.Host
		req.Header.Del("Host")

		if c.Request.URL.RawQuery != "" {
			req.URL.RawQuery = c.Request.URL.RawQuery
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.log.Warn().Str("plugin", pluginName).Str("base_url", baseURL).Err(err).Msg("plugin API proxy error")
		if err == io.ErrUnexpectedEOF {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(fmt.Sprintf("plugin API unreachable: %s", err.Error())))
	}

	proxy.ModifyResponse = func(resp *http.Response) error {
		if resp.StatusCode < 100 || resp.StatusCode > 599 {
			resp.StatusCode = http.StatusBadGateway
		}
		return nil
	}

	proxy.ServeHTTP(c.Writer, c.Request)
}

func joinPath(base, rest string) string {
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return strings.TrimSuffix(base, "/") + rest
}
