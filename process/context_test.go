package process

import "testing"

func TestFreshEntryContext(t *testing.T) {
	req := &ExecRequest{Entry: 0x401000, Stack: 0x7ffffff0}
	ctx := FreshEntryContext(req)

	if ctx.RIP != req.Entry {
		t.Errorf("RIP = 0x%x, want 0x%x", ctx.RIP, req.Entry)
	}
	if ctx.RSP != req.Stack {
		t.Errorf("RSP = 0x%x, want 0x%x", ctx.RSP, req.Stack)
	}
	if ctx.RFlags != rflagsDefault {
		t.Errorf("RFlags = 0x%x, want 0x%x", ctx.RFlags, rflagsDefault)
	}
}

func TestForkChildContext_RAXZeroed(t *testing.T) {
	parentSaved := Context{RIP: 0x1000, RSP: 0x2000, RAX: 42, RBX: 7}
	child := ForkChildContext(parentSaved)

	if child.RAX != 0 {
		t.Errorf("child.RAX = %d, want 0", child.RAX)
	}
	if child.RBX != parentSaved.RBX {
		t.Errorf("child.RBX = %d, want %d (callee-saved preserved)", child.RBX, parentSaved.RBX)
	}
	if child.RIP != parentSaved.RIP {
		t.Errorf("child.RIP = 0x%x, want 0x%x", child.RIP, parentSaved.RIP)
	}
}
