// Package github provides a minimal GitHub REST API client for posting
// covdiff results as pull request comments.
//
// Comments are upserted: [Client.UpsertComment] updates the first existing
// comment whose body starts with a marker (an HTML comment such as
// <!-- codeCoverageDiffComment -->) and creates one otherwise, so re-runs on
// the same PR edit a single comment in place. [LoadPullRequest] reads the PR
// number and base/head refs from the Actions event payload.
package github
