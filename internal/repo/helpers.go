package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// queryArgs accumulates positional arguments while a query is assembled.
type queryArgs []interface{}

// add appends v and returns its placeholder.
func (a *queryArgs) add(v interface{}) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// likePattern escapes LIKE wildcards and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// caseScopeSQL renders the case part of s against the cases alias c.
func caseScopeSQL(s access.Scope, args *queryArgs) string {
	return scopeSQL(s, args, false)
}

// taskScopeSQL additionally honours the assignee clause on tasks alias t.
// The parent case is expected as a LEFT JOIN on alias c.
func taskScopeSQL(s access.Scope, args *queryArgs) string {
	return scopeSQL(s, args, true)
}

func scopeSQL(s access.Scope, args *queryArgs, withAssignee bool) string {
	if s.All {
		return "TRUE"
	}
	var parts []string
	if s.AttorneyID != "" {
		parts = append(parts, "c.assigned_attorney = "+args.add(s.AttorneyID))
	}
	if s.AssistantID != "" {
		parts = append(parts, args.add(s.AssistantID)+" = ANY(c.assistants)")
	}
	if withAssignee && s.AssigneeID != "" {
		parts = append(parts, "t.assigned_to = "+args.add(s.AssigneeID))
	}
	if len(parts) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
