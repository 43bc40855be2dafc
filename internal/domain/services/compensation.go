package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/navayuwa/nes-core/internal/domain/ports"
)

// CompensationLog tracks the records written by one batch so a failure
// midway can undo everything the batch created. Records are undone in
// reverse dependency order: relationships before the entities they
// connect, version history with each record, and the batch actor last.
type CompensationLog struct {
	// BatchID labels the batch in logs.
	BatchID string

	store ports.RecordStore
	log   *slog.Logger

	entityIDs       []string
	relationshipIDs []string
	actorIDs        []string
}

// NewCompensationLog creates an empty log for a new batch.
func NewCompensationLog(store ports.RecordStore, log *slog.Logger) *CompensationLog {
	if log == nil {
		log = slog.Default()
	}
	return &CompensationLog{
		BatchID: uuid.New().String(),
		store:   store,
		log:     log,
	}
}

// RecordEntity registers an entity created by this batch.
func (c *CompensationLog) RecordEntity(id string) {
	c.entityIDs = append(c.entityIDs, id)
}

// RecordRelationship registers a relationship created by this batch.
func (c *CompensationLog) RecordRelationship(id string) {
	c.relationshipIDs = append(c.relationshipIDs, id)
}

// RecordActor registers an actor created for this batch.
func (c *CompensationLog) RecordActor(id string) {
	c.actorIDs = append(c.actorIDs, id)
}

// Len returns how many records the batch has registered.
func (c *CompensationLog) Len() int {
	return len(c.entityIDs) + len(c.relationshipIDs) + len(c.actorIDs)
}

// Rollback undoes every registered record. The store has no
// transactions, so the rollback is best effort: individual failures
// are logged and skipped so one stuck record does not strand the rest.
func (c *CompensationLog) Rollback(ctx context.Context) {
	c.log.Warn("rolling back batch",
		"batch", c.BatchID,
		"entities", len(c.entityIDs),
		"relationships", len(c.relationshipIDs))

	for i := len(c.relationshipIDs) - 1; i >= 0; i-- {
		c.undoRecord(ctx, c.relationshipIDs[i], func(id string) (bool, error) {
			return c.store.DeleteRelationship(ctx, id)
		})
	}
	for i := len(c.entityIDs) - 1; i >= 0; i-- {
		c.undoRecord(ctx, c.entityIDs[i], func(id string) (bool, error) {
			return c.store.DeleteEntity(ctx, id)
		})
	}
	for i := len(c.actorIDs) - 1; i >= 0; i-- {
		if _, err := c.store.DeleteActor(ctx, c.actorIDs[i]); err != nil {
			c.log.Error("rollback: deleting actor failed", "batch", c.BatchID, "id", c.actorIDs[i], "error", err)
		}
	}

	c.log.Info("rollback finished", "batch", c.BatchID)
}

// undoRecord deletes one record and its version history.
func (c *CompensationLog) undoRecord(ctx context.Context, id string, remove func(string) (bool, error)) {
	if _, err := remove(id); err != nil {
		c.log.Error("rollback: deleting record failed", "batch", c.BatchID, "id", id, "error", err)
	}
	if _, err := c.store.DeleteVersionsByOwner(ctx, id); err != nil {
		c.log.Error("rollback: purging versions failed", "batch", c.BatchID, "id", id, "error", err)
	}
}

// Discard drops the log without undoing anything, for use after the
// batch commits.
func (c *CompensationLog) Discard() {
	c.entityIDs = nil
	c.relationshipIDs = nil
	c.actorIDs = nil
}
