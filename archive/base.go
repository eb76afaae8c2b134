package archive

// base holds the state shared by every back-end reader: the parsed header
// and the index->object cache used to resolve "§" back references.
type base struct {
	header Header
	cache  map[uint32]Persistable
}

func newBase(h Header) base {
	return base{header: h, cache: map[uint32]Persistable{}}
}

func (b *base) Header() Header { return b.header }

// readObjectCommon implements the object-level read protocol once, shared by
// all three back-ends: resolve "§" back references against the cache,
// return nil for "%" empty markers, otherwise construct via the registry,
// cache by index, load, then consume the object-end marker.
func readObjectCommon(r Reader, b *base, version GameVersion) (Persistable, error) {
	obj, ok := r.ReadObjectBegin()
	if !ok {
		return nil, nil
	}

	if obj.ClassName == refClassName {
		if !r.ReadObjectEnd() {
			log.Warnf("invalid reference object has children: index %d", obj.Index)
			r.SkipObject(true)
		}
		cached, found := b.cache[obj.Index]
		if !found {
			log.Warnf("unresolved back reference: index %d", obj.Index)
			return nil, nil
		}
		return cached, nil
	}

	if obj.ClassName == emptyClassName {
		r.SkipObject(true)
		return nil, nil
	}

	inst, known := lookup(obj.ClassName)
	if !known {
		log.Errorf("unregistered archive class %q", obj.ClassName)
		r.SkipObject(true)
		return nil, nil
	}

	b.cache[obj.Index] = inst
	if err := inst.Load(r, version); err != nil {
		return nil, err
	}

	if !r.ReadObjectEnd() {
		log.Warnf("object %q (%s) has unread trailing fields", obj.ObjectName, obj.ClassName)
		r.SkipObject(false)
	}

	return inst, nil
}

// skipObjectCommon descends nested objects using the begin/end events
// alone: a level counter is incremented on a nested begin and decremented
// on an end, with every other line consumed as a field via SkipEntry.
func skipObjectCommon(r Reader, includeCurrent bool) {
	level := 0
	if includeCurrent {
		level = 1
	}
	for level > 0 {
		if _, ok := r.ReadObjectBegin(); ok {
			level++
		} else if r.ReadObjectEnd() {
			level--
		} else {
			r.SkipEntry()
		}
	}
}
