package tfs

import (
	"strings"
	"time"
)

// Changeset is one historical TFVC revision.
type Changeset struct {
	ID                   int
	Committer            string
	CommitterDisplayName string
	Owner                string
	OwnerDisplayName     string
	CreationDate         time.Time
	Comment              string
	// CommentTruncated is set when the server returned a shortened comment.
	CommentTruncated     bool
}

type identityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type changesetDTO struct {
	ChangesetID      int         `json:"changesetId"`
	Author           identityRef `json:"author"`
	CheckedInBy      identityRef `json:"checkedInBy"`
	CreatedDate      time.Time   `json:"createdDate"`
	Comment          string      `json:"comment"`
	CommentTruncated bool        `json:"commentTruncated"`
}

func (d changesetDTO) toChangeset() Changeset {
	committer := d.CheckedInBy
	if committer.UniqueName == "" {
		committer = d.Author
	}
	return Changeset{
		ID:                   d.ChangesetID,
		Committer:            committer.UniqueName,
		CommitterDisplayName: committer.DisplayName,
		Owner:                d.Author.UniqueName,
		OwnerDisplayName:     d.Author.DisplayName,
		CreationDate:         d.CreatedDate,
		Comment:              d.Comment,
		CommentTruncated:     d.CommentTruncated,
	}
}

type changesetList struct {
	Count int            `json:"count"`
	Value []changesetDTO `json:"value"`
}

type propertyValue struct {
	Type  string `json:"$type"`
	Value any    `json:"$value"`
}

type identityDTO struct {
	ID                  string                   `json:"id"`
	Descriptor          string                   `json:"descriptor"`
	ProviderDisplayName string                   `json:"providerDisplayName"`
	CustomDisplayName   string                   `json:"customDisplayName"`
	IsContainer         bool                     `json:"isContainer"`
	Members             []string                 `json:"members"`
	Properties          map[string]propertyValue `json:"properties"`
}

func (d identityDTO) property(name string) string {
	p, ok := d.Properties[name]
	if !ok {
		return ""
	}
	s, _ := p.Value.(string)
	return s
}

func (d identityDTO) displayName() string {
	if d.CustomDisplayName != "" {
		return d.CustomDisplayName
	}
	return d.ProviderDisplayName
}

// uniqueName mirrors the server's DOMAIN\account form; accounts that are
// already email-style names are returned as-is.
func (d identityDTO) uniqueName() string {
	account := d.property("Account")
	domain := d.property("Domain")
	if domain == "" || account == "" || strings.ContainsAny(account, `@\`) {
		return account
	}
	return domain + `\` + account
}

type identityList struct {
	Count int           `json:"count"`
	Value []identityDTO `json:"value"`
}
