// Package sloghooks writes engine Hooks events to a *slog.Logger.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	DecodeRejectEvery uint64
	SelfHealEvery     uint64
	// Journal keys embed sensor ids. nil logs them as is.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	decodeCtr   atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ bebopffi.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// HashKey is a Redact func that keeps a short SHA-256 prefix.
func HashKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return "sha256:" + hex.EncodeToString(sum[:6])
}

func (h *Hooks) key(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return k
}

// sample passes occurrences 1, n+1, 2n+1, ...
func sample(n uint64, ctr *atomic.Uint64) bool {
	c := ctr.Add(1)
	return n <= 1 || c%n == 1
}

func (h *Hooks) DecodeRejected(st abi.Status, size int, reason string) {
	if h.l == nil || !sample(h.opts.DecodeRejectEvery, &h.decodeCtr) {
		return
	}
	h.l.Debug("bebop.decode_rejected",
		"status", st.String(),
		"size", size,
		"reason", reason)
}

func (h *Hooks) EncodeRejected(st abi.Status, records int, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("bebop.encode_rejected",
		"status", st.String(),
		"records", records,
		"reason", reason)
}

func (h *Hooks) StreamCanceled(decoded, consumed int) {
	if h.l == nil {
		return
	}
	h.l.Info("bebop.stream_canceled",
		"decoded", decoded,
		"consumed", consumed)
}

func (h *Hooks) ArenaExhausted(s arena.Stats) {
	if h.l == nil {
		return
	}
	h.l.Warn("bebop.arena_exhausted",
		"in_use", s.InUse,
		"capacity", s.Capacity,
		"chunks", s.Chunks)
}

func (h *Hooks) JournalSelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("bebop.journal_self_heal",
		"key", h.key(storageKey),
		"reason", reason)
}

func (h *Hooks) JournalSetRejected(storageKey string, batch bool) {
	if h.l == nil {
		return
	}
	h.l.Warn("bebop.journal_set_rejected",
		"key", h.key(storageKey),
		"batch", batch)
}

func (h *Hooks) JournalGenError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("bebop.journal_gen_error",
		"key", h.key(storageKey),
		"err", err)
}
