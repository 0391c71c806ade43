package uploader

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// ProgressEntry 是一次上传尝试的进度快照。
// ID 对每次尝试唯一，两个同名文件不会互相覆盖。
type ProgressEntry struct {
	ID       string
	FileName string
	Percent  int
}

type progressSlot struct {
	entry ProgressEntry
	seq   uint64 // 开始顺序，用于快照排序
}

// progressSet 不是并发安全的，调用方持有 Widget.mu。
type progressSet struct {
	slots map[string]*progressSlot
	next  uint64
}

func newProgressSet() *progressSet {
	return &progressSet{slots: make(map[string]*progressSlot)}
}

func (p *progressSet) start(fileName string) string {
	id := uuid.NewString()
	p.next++
	p.slots[id] = &progressSlot{
		entry: ProgressEntry{ID: id, FileName: fileName},
		seq:   p.next,
	}
	return id
}

// update 只接受不小于当前值的百分比。返回值表示是否发生了变化。
func (p *progressSet) update(id string, percent int) (ProgressEntry, bool) {
	slot, ok := p.slots[id]
	if !ok || percent <= slot.entry.Percent {
		return ProgressEntry{}, false
	}
	slot.entry.Percent = percent
	return slot.entry, true
}

func (p *progressSet) remove(id string) {
	delete(p.slots, id)
}

func (p *progressSet) snapshot() []ProgressEntry {
	slots := make([]*progressSlot, 0, len(p.slots))
	for _, s := range p.slots {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].seq < slots[j].seq })

	out := make([]ProgressEntry, len(slots))
	for i, s := range slots {
		out[i] = s.entry
	}
	return out
}

// percentOf computes round(loaded*100/total) clamped to [0,100].
func percentOf(loaded, total int64) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	pct := int(math.Round(float64(loaded) * 100 / float64(total)))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
