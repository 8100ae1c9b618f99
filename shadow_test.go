package mtrace

import "testing"

func TestShadowPushPopMatchesLIFO(t *testing.T) {
	tls := &tlsBlock{}

	if !pushShadowFrame(tls, shadowFrame{returnAddr: 1, stackPtr: 300}) {
		t.Fatal("push 1 failed")
	}
	if !pushShadowFrame(tls, shadowFrame{returnAddr: 2, stackPtr: 200}) {
		t.Fatal("push 2 failed")
	}

	f, ok := popShadowFrame(tls, 200)
	if !ok || f.returnAddr != 2 {
		t.Fatalf("pop 1 = %+v, %v, want returnAddr=2, ok=true", f, ok)
	}

	f, ok = popShadowFrame(tls, 300)
	if !ok || f.returnAddr != 1 {
		t.Fatalf("pop 2 = %+v, %v, want returnAddr=1, ok=true", f, ok)
	}
}

func TestShadowPopOnEmptyStack(t *testing.T) {
	tls := &tlsBlock{}
	_, ok := popShadowFrame(tls, 0)
	if ok {
		t.Fatal("pop on empty stack must report ok=false")
	}
}

func TestShadowOverflowPoisonsThread(t *testing.T) {
	tls := &tlsBlock{}
	for i := 0; i < MaxShadowDepth; i++ {
		if !pushShadowFrame(tls, shadowFrame{returnAddr: uint64(i), stackPtr: uint64(1000 - i)}) {
			t.Fatalf("push %d unexpectedly failed before reaching MaxShadowDepth", i)
		}
	}
	if pushShadowFrame(tls, shadowFrame{returnAddr: 9999, stackPtr: 0}) {
		t.Fatal("push beyond MaxShadowDepth must fail")
	}
	if tls.poisoned == 0 {
		t.Fatal("overflow must poison the thread")
	}
	// A poisoned thread refuses every subsequent push, even one that
	// would otherwise fit.
	tls.depth = 0
	if pushShadowFrame(tls, shadowFrame{returnAddr: 1, stackPtr: 1}) {
		t.Fatal("poisoned thread must keep refusing pushes")
	}
}

func TestShadowDiscardsStaleFramesOnNonLocalUnwind(t *testing.T) {
	tls := &tlsBlock{}

	// Simulate three nested calls, the innermost two of which get
	// unwound past by a longjmp-style jump straight to the outermost
	// frame's caller, without ever running their return trampolines.
	pushShadowFrame(tls, shadowFrame{returnAddr: 1, stackPtr: 300}) // outermost
	pushShadowFrame(tls, shadowFrame{returnAddr: 2, stackPtr: 200})
	pushShadowFrame(tls, shadowFrame{returnAddr: 3, stackPtr: 100}) // innermost

	// The thread resumes at a point whose frame pointer sits above all
	// three recorded calls.
	f, ok := popShadowFrame(tls, 300)
	if !ok {
		t.Fatal("expected a surviving frame after discarding stale ones")
	}
	if f.returnAddr != 1 {
		t.Fatalf("returnAddr = %d, want 1 (the only non-stale frame)", f.returnAddr)
	}
	if tls.depth != 0 {
		t.Fatalf("depth = %d, want 0 after popping the last frame", tls.depth)
	}
}
