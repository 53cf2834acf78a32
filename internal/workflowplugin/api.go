package workflowplugin

import (
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/pcfengzi/monitor-ai-bot/internal/workflow"
)

// definitionStore is the harness's view of the currently loaded graphs,
// shared between the tick-loop runner and the on-demand HTTP API.
type definitionStore struct {
	mu     sync.RWMutex
	byKey  map[string]workflow.WorkflowDefinition
	runner *workflow.WorkflowEngineRunner
}

func newDefinitionStore(defs []workflow.WorkflowDefinition, runner *workflow.WorkflowEngineRunner) *definitionStore {
	s := &definitionStore{byKey: make(map[string]workflow.WorkflowDefinition, len(defs)), runner: runner}
	for _, d := range defs {
		s.byKey[d.Key] = d
	}
	return s
}

func (s *definitionStore) get(key string) (workflow.WorkflowDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byKey[key]
	return d, ok
}

func (s *definitionStore) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// registerAPI wires the harness's on-demand HTTP surface: a health probe,
// a listing of loaded graphs, and a trigger endpoint, matching the original
// plugin's /health, /workflows and /workflows/:key/run routes.
func registerAPI(router gin.IRouter, store *definitionStore) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/workflows", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"workflows": store.keys()})
	})

	router.POST("/workflows/:key/run", func(c *gin.Context) {
		key := c.Param("key")
		def, ok := store.get(key)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown workflow: " + key})
			return
		}

		var input map[string]interface{}
		if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}

		result, err := store.runner.Run(def, input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
