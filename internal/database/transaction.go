package database

// Batch transaction utilities.
//
// Two patterns are provided for atomic multi-statement operations:
//
// # AtomicBatch (recommended for most cases)
//
// Simple, fluent API for 2-5 statements that must succeed together:
//
//	batch := NewAtomicBatch()
//	batch.Add(query1, vars1)
//	batch.Add(query2, vars2)
//	batch.Execute(ctx, db)  // All or nothing
//
// # TxBuilder (for conflicting variable names)
//
// Use when combining queries whose variable names collide. Variables
// are automatically namespaced ($user -> $v1_user):
//
//	tb := NewTxBuilder()
//	tb.Add("UPDATE type::record($group) SET members -= $user", vars1)
//	tb.Add("UPDATE type::record($user) SET party.id = NONE", vars2)
//	ExecuteTransaction(ctx, db, tb)
//
// IMPORTANT: Both patterns are BATCH-BASED. Queries accumulate and execute
// together inside a single BEGIN TRANSACTION / COMMIT TRANSACTION block.
// There is no isolation between Add() calls.

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// TxBuilder accumulates statements into one transaction, rewriting each
// statement's variables into a unique namespace so independently built
// queries cannot clobber each other's bindings.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter uint64
}

// NewTxBuilder returns an empty transaction builder.
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{vars: make(map[string]interface{})}
}

// Add appends a statement, renaming its variables to namespaced forms.
// The returned map records the original-to-namespaced name mapping.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	renamed := make(map[string]string, len(vars))

	for name, value := range vars {
		n := atomic.AddUint64(&tb.varCounter, 1)
		scoped := fmt.Sprintf("v%d_%s", n, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+scoped)
		tb.vars[scoped] = value
		renamed[name] = scoped
	}

	tb.statements = append(tb.statements, query)
	return renamed
}

// AddRaw appends a statement verbatim, with no variable rewriting.
func (tb *TxBuilder) AddRaw(query string) {
	tb.statements = append(tb.statements, query)
}

// Build assembles the transaction block and merged variable map. An
// empty builder yields an empty query.
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction runs everything accumulated in tb as one query.
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}

// AtomicBatch is the fluent wrapper over TxBuilder for the common case
// where callers just want several statements committed together.
type AtomicBatch struct {
	queries []batchQuery
}

type batchQuery struct {
	query string
	vars  map[string]interface{}
}

// NewAtomicBatch returns an empty batch.
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{}
}

// Add queues a statement and returns the batch for chaining.
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.queries = append(ab.queries, batchQuery{query: query, vars: vars})
	return ab
}

// Execute commits every queued statement in a single transaction. An
// empty batch is a no-op.
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(ab.queries) == 0 {
		return nil
	}

	tb := NewTxBuilder()
	for _, q := range ab.queries {
		tb.Add(q.query, q.vars)
	}

	_, err := ExecuteTransaction(ctx, db, tb)
	return err
}

// Len reports how many statements are queued.
func (ab *AtomicBatch) Len() int {
	return len(ab.queries)
}
