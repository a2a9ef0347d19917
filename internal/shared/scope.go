package shared

// BranchScope identifies either one branch or the all-branches aggregate.
// The same scope value is used by mutation and regulatory queries so the two
// engines cannot disagree about what "all branches" means.
type BranchScope string

// ScopeAllBranches aggregates every branch.
const ScopeAllBranches BranchScope = "ALL"

// ScopeFor returns the scope for a single branch id, or the all-branches
// scope when the id is empty.
func ScopeFor(branchID string) BranchScope {
	if branchID == "" {
		return ScopeAllBranches
	}
	return BranchScope(branchID)
}

// IsAll reports whether the scope covers every branch.
func (s BranchScope) IsAll() bool {
	return s == ScopeAllBranches || s == ""
}

// BranchID returns the single branch id, or "" for the all-branches scope.
func (s BranchScope) BranchID() string {
	if s.IsAll() {
		return ""
	}
	return string(s)
}
