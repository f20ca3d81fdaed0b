package ledger

import (
	"strconv"
	"strings"
)

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// whereClause translates a Filter into a SQL WHERE clause. Argument
// numbering starts after offset existing arguments.
func whereClause(f Filter, ph placeholder, offset int) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, expr+ph(offset+len(args)))
	}
	if f.UseCaseID != "" {
		add("use_case_id = ", f.UseCaseID)
	}
	if f.ProviderName != "" {
		add("provider_name = ", f.ProviderName)
	}
	if f.ModelName != "" {
		add("model_name = ", f.ModelName)
	}
	if f.Enabled != nil {
		add("enabled = ", *f.Enabled)
	}
	if f.ExcludeID != "" {
		add("id <> ", f.ExcludeID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// setClause translates an Update into a SQL SET list.
func setClause(u Update, ph placeholder) (string, []any) {
	var sets []string
	var args []any
	if u.Enabled != nil {
		args = append(args, *u.Enabled)
		sets = append(sets, "enabled = "+ph(len(args)))
	}
	if u.Balance != nil {
		args = append(args, *u.Balance)
		sets = append(sets, "balance = "+ph(len(args)))
	}
	return strings.Join(sets, ", "), args
}

const quotaColumns = `id, unit, quota_limit, balance, use_case_id, use_case_name, provider_name, model_name, created_at, enabled`
