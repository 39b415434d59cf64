package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/dnbasta/ynab-split-budget/internal/core/ports/services"
)

// ReconcileHandler exposes reconciliation cycles over HTTP.
type ReconcileHandler struct {
	reconciler portssvc.ReconcilerSvc
}

// NewReconcileHandler builds the handler.
func NewReconcileHandler(reconciler portssvc.ReconcilerSvc) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// Process runs a full reconciliation cycle and returns the session result.
func (h *ReconcileHandler) Process(c *gin.Context) {
	result, err := h.reconciler.Process(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Fetch resolves charges across both budgets without applying anything.
func (h *ReconcileHandler) Fetch(c *gin.Context) {
	result, err := h.reconciler.Fetch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Balance reports both users' shared-account cleared balances.
func (h *ReconcileHandler) Balance(c *gin.Context) {
	result, err := h.reconciler.Balances(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncKnowledge overwrites both cursors with current server knowledge.
func (h *ReconcileHandler) SyncKnowledge(c *gin.Context) {
	cursors, err := h.reconciler.SyncKnowledge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cursors)
}
