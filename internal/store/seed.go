package store

import (
	"context"
	"fmt"
)

// Seed populates an empty store with demo users and papers so a fresh
// install has something to browse and search. hashPassword is injected
// to keep credential handling out of this package. Seeding a non-empty
// store is a no-op.
func Seed(ctx context.Context, s *Store, hashPassword func(string) (string, error)) error {
	papers, _, err := s.Stats(ctx)
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if papers > 0 {
		return nil
	}

	hash, err := hashPassword("papertrail")
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	ada := &User{Username: "ada", DisplayName: "Ada Lovelace", Bio: "Reading about computation.", PasswordHash: hash}
	grace := &User{Username: "grace", DisplayName: "Grace Hopper", Bio: "Compilers and the people who write them.", PasswordHash: hash}
	for _, u := range []*User{ada, grace} {
		if err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	demo := []*Paper{
		{
			UserID:   ada.ID,
			Title:    "Attention Is All You Need",
			Authors:  "Vaswani et al.",
			ArxivID:  "1706.03762",
			Abstract: "We propose a new simple network architecture, the Transformer, based solely on attention mechanisms, dispensing with recurrence and convolutions entirely.",
			Summary:  "Introduces the Transformer. Self-attention replaces recurrence, which makes training parallelizable and sets up everything that came after.",
			DateRead: "2026-07-14",
			Tags:     []string{"transformers", "attention"},
		},
		{
			UserID:   ada.ID,
			Title:    "Efficient Estimation of Word Representations in Vector Space",
			Authors:  "Mikolov, Chen, Corrado, Dean",
			ArxivID:  "1301.3781",
			Abstract: "We propose two novel model architectures for computing continuous vector representations of words from very large data sets.",
			Summary:  "The word2vec paper. Skip-gram and CBOW, and the famous king - man + woman arithmetic.",
			DateRead: "2026-06-02",
			Tags:     []string{"embeddings", "nlp"},
		},
		{
			UserID:    ada.ID,
			Title:     "Notes toward a reading queue",
			Authors:   "Ada Lovelace",
			Summary:   "Private scratchpad of papers to triage next quarter.",
			IsPrivate: true,
			Tags:      []string{"queue"},
		},
		{
			UserID:   grace.ID,
			Title:    "Reciprocal Rank Fusion outperforms Condorcet and individual Rank Learning Methods",
			Authors:  "Cormack, Clarke, Buettcher",
			DOI:      "10.1145/1571941.1572114",
			Abstract: "Reciprocal rank fusion simply sorts documents according to a naive scoring formula, yet consistently yields better results than any individual system.",
			Summary:  "Why summing 1/(k+rank) across rankers works so well. The k constant dampens the influence of top-heavy outliers.",
			DateRead: "2026-08-01",
			Tags:     []string{"retrieval", "fusion"},
		},
		{
			UserID:   grace.ID,
			Title:    "The UNIX Time-Sharing System",
			Authors:  "Ritchie, Thompson",
			PaperURL: "https://dl.acm.org/doi/10.1145/361011.361061",
			Abstract: "UNIX is a general-purpose, multi-user, interactive operating system for the Digital Equipment Corporation PDP-11/40 and 11/45 computers.",
			Summary:  "Still the clearest systems paper ever written. Everything is a file.",
			DateRead: "2026-05-20",
			Tags:     []string{"systems", "classics"},
		},
	}

	for _, p := range demo {
		if err := s.CreatePaper(ctx, p); err != nil {
			return fmt.Errorf("seed paper %q: %w", p.Title, err)
		}
	}
	return nil
}
