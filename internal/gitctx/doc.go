// Package gitctx drives the git operations covdiff needs to measure the base
// branch: fetching, stashing the head-branch working tree, force-checking out
// the base ref, and resolving refs and repository metadata. It shells out to
// the git binary.
package gitctx
