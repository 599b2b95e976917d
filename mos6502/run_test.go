package mos6502

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// state is the programmer visible register file, for whole-CPU
// comparisons after a program has run.
type state struct {
	A, X, Y, SP, P uint8
	PC             uint16
}

func snapshot(c *CPU) state {
	return state{A: c.acc, X: c.x, Y: c.y, SP: c.sp, P: c.status, PC: c.pc}
}

func newCPU() *CPU {
	return New(NewRAM())
}

func TestLoad(t *testing.T) {
	c := newCPU()
	c.Load([]uint8{0xA9, 0x05, 0x00})

	assert.Equal(t, uint8(0xA9), c.Read(LOAD_BASE))
	assert.Equal(t, uint8(0x05), c.Read(LOAD_BASE+1))
	assert.Equal(t, uint8(0x00), c.Read(LOAD_BASE+2))
	assert.Equal(t, uint16(LOAD_BASE), c.Read16(INT_RESET))
	assert.Equal(t, uint16(LOAD_BASE), c.pc)
}

func TestLDAImmediate(t *testing.T) {
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0x05, 0x00}))

	assert.Equal(t, uint8(0x05), c.acc)
	assert.Zero(t, c.status&STATUS_FLAG_ZERO)
	assert.Zero(t, c.status&STATUS_FLAG_NEGATIVE)
}

func TestLDAZeroFlag(t *testing.T) {
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0x00, 0x00}))

	assert.Equal(t, uint8(0x00), c.acc)
	assert.NotZero(t, c.status&STATUS_FLAG_ZERO)
}

func TestLDAFromMemory(t *testing.T) {
	c := newCPU()
	c.Write(0x10, 0x55)
	require.NoError(t, c.LoadAndRun([]uint8{0xA5, 0x10, 0x00}))

	assert.Equal(t, uint8(0x55), c.acc)
}

func TestINXOverflow(t *testing.T) {
	c := newCPU()
	c.Load([]uint8{0xE8, 0x00})
	c.x = 0xFF
	require.NoError(t, c.Run())

	assert.Equal(t, uint8(0x00), c.x)
	assert.NotZero(t, c.status&STATUS_FLAG_ZERO)
}

func TestADCPositiveOverflow(t *testing.T) {
	// 0x50 + 0x50: two positives summing to a negative
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0x50, 0x69, 0x50, 0x00}))

	assert.Equal(t, uint8(0xA0), c.acc)
	assert.NotZero(t, c.status&STATUS_FLAG_OVERFLOW)
	assert.NotZero(t, c.status&STATUS_FLAG_NEGATIVE)
	assert.Zero(t, c.status&STATUS_FLAG_CARRY)
	assert.Zero(t, c.status&STATUS_FLAG_ZERO)
}

func TestADCNegativeOverflow(t *testing.T) {
	// 0xD0 + 0x90: two negatives summing to a positive
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0xD0, 0x69, 0x90, 0x00}))

	assert.Equal(t, uint8(0x60), c.acc)
	assert.NotZero(t, c.status&STATUS_FLAG_OVERFLOW)
	assert.NotZero(t, c.status&STATUS_FLAG_CARRY)
	assert.Zero(t, c.status&STATUS_FLAG_NEGATIVE)
}

func TestROLMemory(t *testing.T) {
	// SEC; LDA #$EC; STA $02; ROL $02
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0x38, 0xA9, 0xEC, 0x85, 0x02, 0x26, 0x02, 0x00}))

	assert.Equal(t, uint8(0xD9), c.Read(0x0002))
	assert.NotZero(t, c.status&STATUS_FLAG_CARRY)
	assert.NotZero(t, c.status&STATUS_FLAG_NEGATIVE)
	assert.Zero(t, c.status&STATUS_FLAG_ZERO)
}

func TestBNELoop(t *testing.T) {
	// LDX #8; decrement and store to $0200 until X reaches 3,
	// then store X to $0201
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA2, 0x08, 0xCA, 0x8E, 0x00, 0x02, 0xE0, 0x03,
		0xD0, 0xF8, 0x8E, 0x01, 0x02, 0x00,
	}))

	assert.Equal(t, uint8(0x03), c.x)
	assert.NotZero(t, c.status&STATUS_FLAG_ZERO)
	assert.Equal(t, uint8(0x03), c.Read(0x0200))
	assert.Equal(t, uint8(0x03), c.Read(0x0201))
}

func TestFourOpsWorkingTogether(t *testing.T) {
	// LDA #$C0; TAX; INX; BRK
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0xC0, 0xAA, 0xE8, 0x00}))

	if diff := deep.Equal(snapshot(c), state{
		A:  0xC0,
		X:  0xC1,
		SP: 0xFD,
		P:  STATUS_FLAG_NEGATIVE,
		PC: LOAD_BASE + 5,
	}); diff != nil {
		t.Error(diff)
	}
}

func TestJSRAndRTS(t *testing.T) {
	// JSR $0609; LDA #$01; BRK; pad; subroutine: LDX #$05; RTS
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0x20, 0x09, 0x06, // 0x0600 JSR $0609
		0xA9, 0x01, // 0x0603 LDA #$01
		0x00,             // 0x0605 BRK
		0xEA, 0xEA, 0xEA, // padding
		0xA2, 0x05, // 0x0609 LDX #$05
		0x60, // 0x060B RTS
	}))

	if diff := deep.Equal(snapshot(c), state{
		A:  0x01,
		X:  0x05,
		SP: 0xFD, // balanced call
		P:  0,
		PC: 0x0606,
	}); diff != nil {
		t.Error(diff)
	}
}

func TestJMPAbsolute(t *testing.T) {
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0x4C, 0x05, 0x06, // JMP $0605
		0xA9, 0xFF, // skipped
		0xA9, 0x01, 0x00, // 0x0605 LDA #$01
	}))

	assert.Equal(t, uint8(0x01), c.acc)
}

func TestJMPIndirectPageBug(t *testing.T) {
	// Pointer at $02FF: low byte from $02FF, high byte from $0200
	// rather than $0300.
	c := newCPU()
	c.Write(0x02FF, 0x07)
	c.Write(0x0200, 0x06)
	c.Write(0x0300, 0xFF) // would be read by a bug-free part
	require.NoError(t, c.LoadAndRun([]uint8{
		0x6C, 0xFF, 0x02, // JMP ($02FF)
		0xA9, 0xFF, 0x00, // skipped
		0x00,             // padding
		0xA9, 0x01, 0x00, // 0x0607 LDA #$01
	}))

	assert.Equal(t, uint8(0x01), c.acc)
}

func TestBranchNotTakenAdvancesTwo(t *testing.T) {
	// Zero clear, BEQ must fall through: PC moves exactly 2, then
	// the LDA runs.
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA9, 0x01, // clear zero
		0xF0, 0x02, // BEQ +2 (not taken)
		0xA9, 0x42, 0x00,
	}))

	assert.Equal(t, uint8(0x42), c.acc)
}

func TestBranchBackward(t *testing.T) {
	// Count Y up to 3 with a backward BNE
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA0, 0x00, // LDY #0
		0xC8,       // 0x0602 INY
		0xC0, 0x03, // CPY #3
		0xD0, 0xFB, // BNE -5 -> 0x0602
		0x00,
	}))

	assert.Equal(t, uint8(0x03), c.y)
}

func TestStoreInstructions(t *testing.T) {
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA9, 0x11, 0x85, 0x20, // LDA/STA $20
		0xA2, 0x22, 0x86, 0x21, // LDX/STX $21
		0xA0, 0x33, 0x84, 0x22, // LDY/STY $22
		0x00,
	}))

	assert.Equal(t, uint8(0x11), c.Read(0x20))
	assert.Equal(t, uint8(0x22), c.Read(0x21))
	assert.Equal(t, uint8(0x33), c.Read(0x22))
}

func TestIndexedIndirectProgram(t *testing.T) {
	// LDA ($20,X) with X=4: pointer at $24 -> $0710
	c := newCPU()
	c.Write16(0x24, 0x0710)
	c.Write(0x0710, 0x99)
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA2, 0x04, // LDX #4
		0xA1, 0x20, // LDA ($20,X)
		0x00,
	}))

	assert.Equal(t, uint8(0x99), c.acc)
}

func TestIndirectIndexedProgram(t *testing.T) {
	// LDA ($20),Y with Y=4: pointer at $20 -> $0710, +4
	c := newCPU()
	c.Write16(0x20, 0x0710)
	c.Write(0x0714, 0x77)
	require.NoError(t, c.LoadAndRun([]uint8{
		0xA0, 0x04, // LDY #4
		0xB1, 0x20, // LDA ($20),Y
		0x00,
	}))

	assert.Equal(t, uint8(0x77), c.acc)
}

func TestUnknownOpcode(t *testing.T) {
	c := newCPU()
	err := c.LoadAndRun([]uint8{0x02})

	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownOpcode)
	assert.Contains(t, err.Error(), "0x02")
}

func TestRunWithCallbackTrace(t *testing.T) {
	c := newCPU()
	c.Load([]uint8{0xA9, 0x05, 0xAA, 0xE8, 0x00})

	var pcs []uint16
	require.NoError(t, c.RunWithCallback(func(c *CPU) {
		pcs = append(pcs, c.pc)
	}))

	// one callback per instruction, BRK included
	assert.Equal(t, []uint16{0x0600, 0x0602, 0x0603, 0x0604}, pcs)
}

func TestRunWithCallbackCancel(t *testing.T) {
	// An endless loop (JMP to self), cancelled by pointing the PC
	// at a BRK from the callback.
	c := newCPU()
	c.Write(0x0000, 0x00) // a BRK to land on
	c.Load([]uint8{0x4C, 0x00, 0x06})

	n := 0
	require.NoError(t, c.RunWithCallback(func(c *CPU) {
		n++
		if n == 10 {
			c.SetPC(0x0000)
		}
	}))

	assert.Equal(t, 10, n)
}

func TestCyclesAccumulate(t *testing.T) {
	c := newCPU()
	// LDA #$05 (2 cycles) + TAX (2 cycles); BRK terminates before
	// charging anything
	require.NoError(t, c.LoadAndRun([]uint8{0xA9, 0x05, 0xAA, 0x00}))

	assert.Equal(t, uint64(4), c.Cycles())
}

func TestSBCProgram(t *testing.T) {
	// SEC; LDA #$0A; SBC #$04 -> 6
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0x38, 0xA9, 0x0A, 0xE9, 0x04, 0x00}))

	assert.Equal(t, uint8(0x06), c.acc)
	assert.NotZero(t, c.status&STATUS_FLAG_CARRY)
}

func TestFlagOps(t *testing.T) {
	c := newCPU()
	require.NoError(t, c.LoadAndRun([]uint8{0x38, 0xF8, 0x78, 0x00})) // SEC; SED; SEI
	assert.Equal(t, uint8(STATUS_FLAG_CARRY|STATUS_FLAG_DECIMAL|STATUS_FLAG_INTERRUPT_DISABLE), c.status)

	require.NoError(t, c.LoadAndRun([]uint8{0x18, 0xD8, 0x58, 0x00})) // CLC; CLD; CLI
	assert.Equal(t, uint8(0), c.status)
}
