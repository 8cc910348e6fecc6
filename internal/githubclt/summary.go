package githubclt

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v59/github"
)

// StateOpen is the state value of an open pull request.
const StateOpen = "open"

// Repository identifies the repository a branch lives in.
type Repository struct {
	Name       string
	OwnerLogin string
}

func (r *Repository) String() string {
	return fmt.Sprintf("%s/%s", r.OwnerLogin, r.Name)
}

// Branch describes one side of a pull request.
// Label is formatted as "owner:ref" when the owning repository is known,
// otherwise it is the bare ref.
type Branch struct {
	Ref   string
	Label string
	SHA   string
}

// HeadBranch is the source side of a pull request.
// Repo is nil when the fork the branch belonged to was deleted. Such a
// pull request can not be updated anymore.
type HeadBranch struct {
	Branch
	Repo *Repository
}

// PullRequestSummary is the canonical representation of a pull request.
// It is built from either the REST or the GraphQL listing, used for a
// single decide-and-update cycle and then discarded.
type PullRequestSummary struct {
	Number int
	State  string
	Merged bool
	Draft  bool
	Labels []string
	Base   Branch
	Head   HeadBranch

	// HasAutoMerge reports if auto-merge metadata is present on the
	// pull request. The GraphQL listing never populates it, its query
	// shape is fixed.
	HasAutoMerge bool
}

func (p *PullRequestSummary) HasLabel(name string) bool {
	for _, label := range p.Labels {
		if label == name {
			return true
		}
	}

	return false
}

// SummaryFromPullRequest converts a REST API pull request object into
// its canonical representation.
func SummaryFromPullRequest(pr *github.PullRequest) *PullRequestSummary {
	result := PullRequestSummary{
		Number:       pr.GetNumber(),
		State:        pr.GetState(),
		Merged:       pr.GetMerged(),
		Draft:        pr.GetDraft(),
		HasAutoMerge: pr.GetAutoMerge() != nil,
	}

	for _, label := range pr.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}

	base := pr.GetBase()
	result.Base = Branch{
		Ref:   base.GetRef(),
		Label: base.GetLabel(),
		SHA:   base.GetSHA(),
	}
	if result.Base.Label == "" {
		result.Base.Label = branchLabel(base.GetRepo().GetOwner().GetLogin(), result.Base.Ref)
	}

	head := pr.GetHead()
	result.Head.Branch = Branch{
		Ref:   head.GetRef(),
		Label: head.GetLabel(),
		SHA:   head.GetSHA(),
	}

	if repo := head.GetRepo(); repo != nil {
		result.Head.Repo = &Repository{
			Name:       repo.GetName(),
			OwnerLogin: repo.GetOwner().GetLogin(),
		}
	}

	if result.Head.Label == "" {
		var owner string
		if result.Head.Repo != nil {
			owner = result.Head.Repo.OwnerLogin
		}
		result.Head.Label = branchLabel(owner, result.Head.Ref)
	}

	return &result
}

func branchLabel(ownerLogin, ref string) string {
	if ownerLogin == "" {
		return ref
	}

	return fmt.Sprintf("%s:%s", ownerLogin, ref)
}

// BranchName returns the branch name that a git ref denotes.
// Bare names are passed through, fully qualified refs must point below
// refs/heads/ to denote a branch.
func BranchName(ref string) (string, bool) {
	if strings.HasPrefix(ref, "refs/") {
		branch := strings.TrimPrefix(ref, "refs/heads/")
		if branch == ref {
			return "", false
		}

		ref = branch
	}

	if ref == "" {
		return "", false
	}

	return ref, true
}
