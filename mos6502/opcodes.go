package mos6502

import (
	"fmt"
)

// 6502 Addressing Modes
// https://www.nesdev.org/obelisk-6502-guide/addressing.html
const (
	IMPLICIT = iota
	ACCUMULATOR
	IMMEDIATE
	ZERO_PAGE
	ZERO_PAGE_X
	ZERO_PAGE_Y
	RELATIVE
	ABSOLUTE
	ABSOLUTE_X
	ABSOLUTE_Y
	INDIRECT
	INDIRECT_X // Indexed Indirect
	INDIRECT_Y // Indirect Indexed
)

var modenames map[uint8]string = map[uint8]string{IMPLICIT: "IMPLICIT", ACCUMULATOR: "ACCUMULATOR", IMMEDIATE: "IMMEDIATE", ZERO_PAGE: "ZERO_PAGE", ZERO_PAGE_X: "ZERO_PAGE_X", ZERO_PAGE_Y: "ZERO_PAGE_Y", RELATIVE: "RELATIVE", ABSOLUTE: "ABSOLUTE", ABSOLUTE_X: "ABSOLUTE_X", ABSOLUTE_Y: "ABSOLUTE_Y", INDIRECT: "INDIRECT", INDIRECT_X: "INDIRECT_X", INDIRECT_Y: "INDIRECT_Y"}

// 6502 Instructions
// https://www.nesdev.org/obelisk-6502-guide/instructions.html
// https://www.nesdev.org/obelisk-6502-guide/reference.html
const (
	ADC = iota // ADD with Carry
	AND        // Logical AND
	ASL        // Arithmetic Shift Left
	BCC        // Branch if Carry Clear
	BCS        // Branch if Carry Set
	BEQ        // Branch if Equal
	BIT        // Bit Test
	BMI        // Branch if Minus
	BNE        // Branch if Not Equal
	BPL        // Branch if Positive
	BRK        // Force Interrupt
	BVC        // Branch if Overflow Clear
	BVS        // Branch if Overflow Set
	CLC        // Clear Carry Flag
	CLD        // Clear Decimal Mode
	CLI        // Clear Interrupt Disable
	CLV        // Clear Overflow Flag
	CMP        // Compare
	CPX        // Compare X Register
	CPY        // compare Y Regsiter
	DEC        // Decrement Memory
	DEX        // Decrement X Register
	DEY        // Decrement Y Register
	EOR        // Exclusive OR
	INC        // Increment Memory
	INX        // Increment X Register
	INY        // Increment Y Register
	JMP        // Jump
	JSR        // Jump to Subroutine
	LDA        // Load Accumulator
	LDX        // Load X Register
	LDY        // Load Y Register
	LSR        // Logical Shift Right
	NOP        // No Operation
	ORA        // Logical Inclusive OR
	PHA        // Push Accumulator
	PHP        // Push Processor Status
	PLA        // Pull Accumulator
	PLP        // Pull Processor Status
	ROL        // Rotate Left
	ROR        // Rotate Right
	RTI        // Return from Interrupt
	RTS        // Return from Subroutine
	SBC        // Subtract With Carry
	SEC        // Set Carry Flag
	SED        // Set Decimal Flag
	SEI        // Set Interrupt Disable
	STA        // Store Accumulator
	STX        // Store X Register
	STY        // Store Y Register
	TAX        // Transfer Accumulator to X
	TAY        // Transfer Accumulator to Y
	TSX        // Transfer Stack Pointer to X
	TXA        // Transfer X to Accumulator
	TXS        // Transfer X to Stack Pointer
	TYA        // Transfer Y to Accumulator
)

type opcode struct {
	code   uint8 // The opcode byte itself
	inst   uint8 // The instruction id
	name   string
	mode   uint8 // The memory addressing mode to use
	bytes  uint8 // Total instruction length, opcode byte included
	cycles uint8 // The nominal number of cycles consumed by the instruction
}

func (o opcode) String() string {
	return fmt.Sprintf("{%s, %s}", o.name, modenames[o.mode])
}

// opcodes is the dispatch table, indexed directly by the opcode
// byte. Bytes with no documented instruction stay nil.
var opcodes [256]*opcode

// OpcodeInfo is the exported view of a dispatch table entry, for
// monitors and disassembly displays.
type OpcodeInfo struct {
	Code   uint8
	Name   string
	Mode   string
	Bytes  uint8
	Cycles uint8
}

// Lookup returns the descriptor for an opcode byte, if it is one we
// recognize.
func Lookup(b uint8) (OpcodeInfo, bool) {
	op := opcodes[b]
	if op == nil {
		return OpcodeInfo{}, false
	}
	return OpcodeInfo{Code: op.code, Name: op.name, Mode: modenames[op.mode], Bytes: op.bytes, Cycles: op.cycles}, true
}

func init() {
	for i := range opcodeDefs {
		op := &opcodeDefs[i]
		opcodes[op.code] = op
	}
}

// handlers maps instruction ids to their implementations. BRK has no
// handler; the run loop terminates on it before dispatching.
var handlers = [...]func(*CPU, uint8){
	ADC: (*CPU).ADC,
	AND: (*CPU).AND,
	ASL: (*CPU).ASL,
	BCC: (*CPU).BCC,
	BCS: (*CPU).BCS,
	BEQ: (*CPU).BEQ,
	BIT: (*CPU).BIT,
	BMI: (*CPU).BMI,
	BNE: (*CPU).BNE,
	BPL: (*CPU).BPL,
	BVC: (*CPU).BVC,
	BVS: (*CPU).BVS,
	CLC: (*CPU).CLC,
	CLD: (*CPU).CLD,
	CLI: (*CPU).CLI,
	CLV: (*CPU).CLV,
	CMP: (*CPU).CMP,
	CPX: (*CPU).CPX,
	CPY: (*CPU).CPY,
	DEC: (*CPU).DEC,
	DEX: (*CPU).DEX,
	DEY: (*CPU).DEY,
	EOR: (*CPU).EOR,
	INC: (*CPU).INC,
	INX: (*CPU).INX,
	INY: (*CPU).INY,
	JMP: (*CPU).JMP,
	JSR: (*CPU).JSR,
	LDA: (*CPU).LDA,
	LDX: (*CPU).LDX,
	LDY: (*CPU).LDY,
	LSR: (*CPU).LSR,
	NOP: (*CPU).NOP,
	ORA: (*CPU).ORA,
	PHA: (*CPU).PHA,
	PHP: (*CPU).PHP,
	PLA: (*CPU).PLA,
	PLP: (*CPU).PLP,
	ROL: (*CPU).ROL,
	ROR: (*CPU).ROR,
	RTI: (*CPU).RTI,
	RTS: (*CPU).RTS,
	SBC: (*CPU).SBC,
	SEC: (*CPU).SEC,
	SED: (*CPU).SED,
	SEI: (*CPU).SEI,
	STA: (*CPU).STA,
	STX: (*CPU).STX,
	STY: (*CPU).STY,
	TAX: (*CPU).TAX,
	TAY: (*CPU).TAY,
	TSX: (*CPU).TSX,
	TXA: (*CPU).TXA,
	TXS: (*CPU).TXS,
	TYA: (*CPU).TYA,
}

var opcodeDefs = []opcode{
	// ADC
	{0x69, ADC, "ADC", IMMEDIATE, 2, 2},
	{0x65, ADC, "ADC", ZERO_PAGE, 2, 3},
	{0x75, ADC, "ADC", ZERO_PAGE_X, 2, 4},
	{0x6D, ADC, "ADC", ABSOLUTE, 3, 4},
	{0x7D, ADC, "ADC", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0x79, ADC, "ADC", ABSOLUTE_Y, 3, 4 /* +1 if page crossed*/},
	{0x61, ADC, "ADC", INDIRECT_X, 2, 6},
	{0x71, ADC, "ADC", INDIRECT_Y, 2, 5 /* +1 if page crossed*/},
	{0x29, AND, "AND", IMMEDIATE, 2, 2},
	{0x25, AND, "AND", ZERO_PAGE, 2, 3},
	{0x35, AND, "AND", ZERO_PAGE_X, 2, 4},
	{0x2D, AND, "AND", ABSOLUTE, 3, 4},
	{0x3D, AND, "AND", ABSOLUTE_X, 3, 4 /* + 1 if page crossed*/},
	{0x39, AND, "AND", ABSOLUTE_Y, 3, 4 /* +1 if page crossed*/},
	{0x21, AND, "AND", INDIRECT_X, 2, 6},
	{0x31, AND, "AND", INDIRECT_Y, 2, 5 /* +1 if page crossed*/},
	{0x0A, ASL, "ASL", ACCUMULATOR, 1, 2},
	{0x06, ASL, "ASL", ZERO_PAGE, 2, 5},
	{0x16, ASL, "ASL", ZERO_PAGE_X, 2, 6},
	{0x0E, ASL, "ASL", ABSOLUTE, 3, 6},
	{0x1E, ASL, "ASL", ABSOLUTE_X, 3, 7},
	{0x90, BCC, "BCC", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0xB0, BCS, "BCS", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0xF0, BEQ, "BEQ", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0x24, BIT, "BIT", ZERO_PAGE, 2, 3},
	{0x2C, BIT, "BIT", ABSOLUTE, 3, 4},
	{0x30, BMI, "BMI", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0xD0, BNE, "BNE", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0x10, BPL, "BPL", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0x00, BRK, "BRK", IMPLICIT, 1, 7},
	{0x50, BVC, "BVC", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0x70, BVS, "BVS", RELATIVE, 2, 2 /* +1 if branch succeeds +2 if to a new page */},
	{0x18, CLC, "CLC", IMPLICIT, 1, 2},
	{0xD8, CLD, "CLD", IMPLICIT, 1, 2},
	{0x58, CLI, "CLI", IMPLICIT, 1, 2},
	{0xB8, CLV, "CLV", IMPLICIT, 1, 2},
	{0xC9, CMP, "CMP", IMMEDIATE, 2, 2},
	{0xC5, CMP, "CMP", ZERO_PAGE, 2, 3},
	{0xD5, CMP, "CMP", ZERO_PAGE_X, 2, 4},
	{0xCD, CMP, "CMP", ABSOLUTE, 3, 4},
	{0xDD, CMP, "CMP", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0xD9, CMP, "CMP", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0xC1, CMP, "CMP", INDIRECT_X, 2, 6},
	{0xD1, CMP, "CMP", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	{0xE0, CPX, "CPX", IMMEDIATE, 2, 2},
	{0xE4, CPX, "CPX", ZERO_PAGE, 2, 3},
	{0xEC, CPX, "CPX", ABSOLUTE, 3, 4},
	{0xC0, CPY, "CPY", IMMEDIATE, 2, 2},
	{0xC4, CPY, "CPY", ZERO_PAGE, 2, 3},
	{0xCC, CPY, "CPY", ABSOLUTE, 3, 4},
	{0xC6, DEC, "DEC", ZERO_PAGE, 2, 5},
	{0xD6, DEC, "DEC", ZERO_PAGE_X, 2, 6},
	{0xCE, DEC, "DEC", ABSOLUTE, 3, 6},
	{0xDE, DEC, "DEC", ABSOLUTE_X, 3, 7},
	{0xCA, DEX, "DEX", IMPLICIT, 1, 2},
	{0x88, DEY, "DEY", IMPLICIT, 1, 2},
	{0x49, EOR, "EOR", IMMEDIATE, 2, 2},
	{0x45, EOR, "EOR", ZERO_PAGE, 2, 3},
	{0x55, EOR, "EOR", ZERO_PAGE_X, 2, 4},
	{0x4D, EOR, "EOR", ABSOLUTE, 3, 4},
	{0x5D, EOR, "EOR", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0x59, EOR, "EOR", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0x41, EOR, "EOR", INDIRECT_X, 2, 6},
	{0x51, EOR, "EOR", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	{0xE6, INC, "INC", ZERO_PAGE, 2, 5},
	{0xF6, INC, "INC", ZERO_PAGE_X, 2, 6},
	{0xEE, INC, "INC", ABSOLUTE, 3, 6},
	{0xFE, INC, "INC", ABSOLUTE_X, 3, 7},
	{0xE8, INX, "INX", IMPLICIT, 1, 2},
	{0xC8, INY, "INY", IMPLICIT, 1, 2},
	{0x4C, JMP, "JMP", ABSOLUTE, 3, 3},
	{0x6C, JMP, "JMP", INDIRECT, 3, 5},
	{0x20, JSR, "JSR", ABSOLUTE, 3, 6},
	{0xA9, LDA, "LDA", IMMEDIATE, 2, 2},
	{0xA5, LDA, "LDA", ZERO_PAGE, 2, 3},
	{0xB5, LDA, "LDA", ZERO_PAGE_X, 2, 4},
	{0xAD, LDA, "LDA", ABSOLUTE, 3, 4},
	{0xBD, LDA, "LDA", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0xB9, LDA, "LDA", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0xA1, LDA, "LDA", INDIRECT_X, 2, 6},
	{0xB1, LDA, "LDA", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	{0xA2, LDX, "LDX", IMMEDIATE, 2, 2},
	{0xA6, LDX, "LDX", ZERO_PAGE, 2, 3},
	{0xB6, LDX, "LDX", ZERO_PAGE_Y, 2, 4},
	{0xAE, LDX, "LDX", ABSOLUTE, 3, 4},
	{0xBE, LDX, "LDX", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0xA0, LDY, "LDY", IMMEDIATE, 2, 2},
	{0xA4, LDY, "LDY", ZERO_PAGE, 2, 3},
	{0xB4, LDY, "LDY", ZERO_PAGE_X, 2, 4},
	{0xAC, LDY, "LDY", ABSOLUTE, 3, 4},
	{0xBC, LDY, "LDY", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0x4A, LSR, "LSR", ACCUMULATOR, 1, 2},
	{0x46, LSR, "LSR", ZERO_PAGE, 2, 5},
	{0x56, LSR, "LSR", ZERO_PAGE_X, 2, 6},
	{0x4E, LSR, "LSR", ABSOLUTE, 3, 6},
	{0x5E, LSR, "LSR", ABSOLUTE_X, 3, 7},
	{0xEA, NOP, "NOP", IMPLICIT, 1, 2},
	{0x09, ORA, "ORA", IMMEDIATE, 2, 2},
	{0x05, ORA, "ORA", ZERO_PAGE, 2, 3},
	{0x15, ORA, "ORA", ZERO_PAGE_X, 2, 4},
	{0x0D, ORA, "ORA", ABSOLUTE, 3, 4},
	{0x1D, ORA, "ORA", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0x19, ORA, "ORA", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0x01, ORA, "ORA", INDIRECT_X, 2, 6},
	{0x11, ORA, "ORA", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	{0x48, PHA, "PHA", IMPLICIT, 1, 3},
	{0x08, PHP, "PHP", IMPLICIT, 1, 3},
	{0x68, PLA, "PLA", IMPLICIT, 1, 4},
	{0x28, PLP, "PLP", IMPLICIT, 1, 4},
	{0x2A, ROL, "ROL", ACCUMULATOR, 1, 2},
	{0x26, ROL, "ROL", ZERO_PAGE, 2, 5},
	{0x36, ROL, "ROL", ZERO_PAGE_X, 2, 6},
	{0x2E, ROL, "ROL", ABSOLUTE, 3, 6},
	{0x3E, ROL, "ROL", ABSOLUTE_X, 3, 7},
	{0x6A, ROR, "ROR", ACCUMULATOR, 1, 2},
	{0x66, ROR, "ROR", ZERO_PAGE, 2, 5},
	{0x76, ROR, "ROR", ZERO_PAGE_X, 2, 6},
	{0x6E, ROR, "ROR", ABSOLUTE, 3, 6},
	{0x7E, ROR, "ROR", ABSOLUTE_X, 3, 7},
	{0x40, RTI, "RTI", IMPLICIT, 1, 6},
	{0x60, RTS, "RTS", IMPLICIT, 1, 6},
	{0xE9, SBC, "SBC", IMMEDIATE, 2, 2},
	{0xE5, SBC, "SBC", ZERO_PAGE, 2, 3},
	{0xF5, SBC, "SBC", ZERO_PAGE_X, 2, 4},
	{0xED, SBC, "SBC", ABSOLUTE, 3, 4},
	{0xFD, SBC, "SBC", ABSOLUTE_X, 3, 4 /* +1 if page crossed */},
	{0xF9, SBC, "SBC", ABSOLUTE_Y, 3, 4 /* +1 if page crossed */},
	{0xE1, SBC, "SBC", INDIRECT_X, 2, 6},
	{0xF1, SBC, "SBC", INDIRECT_Y, 2, 5 /* +1 if page crossed */},
	{0x38, SEC, "SEC", IMPLICIT, 1, 2},
	{0xF8, SED, "SED", IMPLICIT, 1, 2},
	{0x78, SEI, "SEI", IMPLICIT, 1, 2},
	{0x85, STA, "STA", ZERO_PAGE, 2, 3},
	{0x95, STA, "STA", ZERO_PAGE_X, 2, 4},
	{0x8D, STA, "STA", ABSOLUTE, 3, 4},
	{0x9D, STA, "STA", ABSOLUTE_X, 3, 5},
	{0x99, STA, "STA", ABSOLUTE_Y, 3, 5},
	{0x81, STA, "STA", INDIRECT_X, 2, 6},
	{0x91, STA, "STA", INDIRECT_Y, 2, 6},
	{0x86, STX, "STX", ZERO_PAGE, 2, 3},
	{0x96, STX, "STX", ZERO_PAGE_Y, 2, 4},
	{0x8E, STX, "STX", ABSOLUTE, 3, 4},
	{0x84, STY, "STY", ZERO_PAGE, 2, 3},
	{0x94, STY, "STY", ZERO_PAGE_X, 2, 4},
	{0x8C, STY, "STY", ABSOLUTE, 3, 4},
	{0xAA, TAX, "TAX", IMPLICIT, 1, 2},
	{0xA8, TAY, "TAY", IMPLICIT, 1, 2},
	{0xBA, TSX, "TSX", IMPLICIT, 1, 2},
	{0x8A, TXA, "TXA", IMPLICIT, 1, 2},
	{0x9A, TXS, "TXS", IMPLICIT, 1, 2},
	{0x98, TYA, "TYA", IMPLICIT, 1, 2},
}
