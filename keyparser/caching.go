package keyparser

import (
	"context"
	"expvar"

	"github.com/INLOpen/docseek/cache"
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/hooks"
)

// FamilyCacheName identifies the family cache in cache hook events.
const FamilyCacheName = "event_family"

type familyParts struct {
	datatype string
	uid      string
}

// CachingParser remembers how recent event column families split, since every
// field of a document repeats the same family. It is safe for concurrent use.
type CachingParser struct {
	families cache.Interface[string, familyParts]
}

// NewCachingParser returns a parser remembering up to capacity families.
// A capacity of zero or less disables the cache.
func NewCachingParser(capacity int) *CachingParser {
	return &CachingParser{families: cache.NewLRUCache[string, familyParts](capacity, nil, nil, nil)}
}

// NewObservedCachingParser is NewCachingParser firing cache hit, miss and
// eviction events through hm.
func NewObservedCachingParser(capacity int, hm hooks.HookManager) *CachingParser {
	fire := func(eventType hooks.EventType, family string) {
		if hm.HasListeners(eventType) {
			_ = hm.Trigger(context.Background(), hooks.NewCacheEvent(eventType, hooks.CachePayload{Cache: FamilyCacheName, Key: family}))
		}
	}
	return &CachingParser{families: cache.NewLRUCache[string, familyParts](capacity,
		func(family string, _ familyParts) { fire(hooks.EventOnCacheEviction, family) },
		func(family string) { fire(hooks.EventOnCacheHit, family) },
		func(family string) { fire(hooks.EventOnCacheMiss, family) },
	)}
}

// Reset drops every remembered family.
func (p *CachingParser) Reset() {
	p.families.Clear()
}

// Len is the number of remembered families.
func (p *CachingParser) Len() int {
	return p.families.Len()
}

// SetMetrics wires hit and miss counters into the family cache.
func (p *CachingParser) SetMetrics(hits, misses *expvar.Int) {
	p.families.SetMetrics(hits, misses)
}

// HitRate reports the family cache hit rate.
func (p *CachingParser) HitRate() float64 {
	return p.families.GetHitRate()
}

func (p *CachingParser) Parse(k core.Key) (ParsedKey, error) {
	if ShapeOf(k) != ShapeEvent {
		return Parse(k)
	}
	parts, ok := p.families.Get(string(k.ColumnFamily))
	if !ok {
		dt, uid, err := splitEventFamily(k)
		if err != nil {
			return ParsedKey{}, err
		}
		parts = familyParts{datatype: dt, uid: uid}
		p.families.Put(string(k.ColumnFamily), parts)
	}
	return parseEventQualifier(ParsedKey{Shape: ShapeEvent, Datatype: parts.datatype, UID: parts.uid}, k)
}
