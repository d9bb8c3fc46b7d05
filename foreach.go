package tecs

// The ForEach functions visit every entity carrying all of the given
// components, passing pointers straight into dense storage. The store with
// the fewest live components drives the walk, so the cost is bounded by the
// rarest component rather than the population.
//
// The engine is locked for the duration. Direct structural mutation from fn
// fails with LockedEngineError; use the Enqueue variants instead, which are
// applied once the walk returns. Visit order is the driver's dense order and
// changes as components are added and removed.

func ForEach1[A any](eng Engine, a AccessibleComponent[A], fn func(Entity, *A)) {
	e := eng.(*engine)
	sa := lookupStore[A](e, a.Component)
	if sa == nil {
		return
	}
	e.Lock()
	defer e.Unlock()

	for slot := 1; slot <= sa.n; slot++ {
		e.scanned++
		e.visited++
		fn(sa.owner(slot), sa.at(slot))
	}
}

func ForEach2[A, B any](eng Engine, a AccessibleComponent[A], b AccessibleComponent[B], fn func(Entity, *A, *B)) {
	e := eng.(*engine)
	sa := lookupStore[A](e, a.Component)
	sb := lookupStore[B](e, b.Component)
	if sa == nil || sb == nil {
		return
	}
	e.Lock()
	defer e.Unlock()

	driver := pickDriver(sa, sb)
	for slot := 1; slot <= driver.len(); slot++ {
		owner := driver.owner(slot)
		e.scanned++
		pa := sa.get(owner.ID)
		if pa == nil {
			continue
		}
		pb := sb.get(owner.ID)
		if pb == nil {
			continue
		}
		e.visited++
		fn(owner, pa, pb)
	}
}

func ForEach3[A, B, C any](eng Engine, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], fn func(Entity, *A, *B, *C)) {
	e := eng.(*engine)
	sa := lookupStore[A](e, a.Component)
	sb := lookupStore[B](e, b.Component)
	sc := lookupStore[C](e, c.Component)
	if sa == nil || sb == nil || sc == nil {
		return
	}
	e.Lock()
	defer e.Unlock()

	driver := pickDriver(sa, sb, sc)
	for slot := 1; slot <= driver.len(); slot++ {
		owner := driver.owner(slot)
		e.scanned++
		pa := sa.get(owner.ID)
		if pa == nil {
			continue
		}
		pb := sb.get(owner.ID)
		if pb == nil {
			continue
		}
		pc := sc.get(owner.ID)
		if pc == nil {
			continue
		}
		e.visited++
		fn(owner, pa, pb, pc)
	}
}

func ForEach4[A, B, C, D any](eng Engine, a AccessibleComponent[A], b AccessibleComponent[B], c AccessibleComponent[C], d AccessibleComponent[D], fn func(Entity, *A, *B, *C, *D)) {
	e := eng.(*engine)
	sa := lookupStore[A](e, a.Component)
	sb := lookupStore[B](e, b.Component)
	sc := lookupStore[C](e, c.Component)
	sd := lookupStore[D](e, d.Component)
	if sa == nil || sb == nil || sc == nil || sd == nil {
		return
	}
	e.Lock()
	defer e.Unlock()

	driver := pickDriver(sa, sb, sc, sd)
	for slot := 1; slot <= driver.len(); slot++ {
		owner := driver.owner(slot)
		e.scanned++
		pa := sa.get(owner.ID)
		if pa == nil {
			continue
		}
		pb := sb.get(owner.ID)
		if pb == nil {
			continue
		}
		pc := sc.get(owner.ID)
		if pc == nil {
			continue
		}
		pd := sd.get(owner.ID)
		if pd == nil {
			continue
		}
		e.visited++
		fn(owner, pa, pb, pc, pd)
	}
}
