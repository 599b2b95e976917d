// Package console wires the 6502 core to the NES memory map: base
// RAM with its mirrors, the PPU register window and the cartridge
// space.
package console

import (
	"fmt"
)

const (
	NES_BASE_MEMORY = 0x800 // 2KB built in RAM

	MAX_NES_BASE_RAM     = 0x1FFF
	MAX_PPU_REG_MIRRORED = 0x3FFF
	MAX_IO_REG           = 0x401F
	MIN_CART_SPACE       = 0x8000
)

// PPU is the register window the bus delegates 0x2000-0x3FFF to. The
// picture processor itself lives outside this module.
type PPU interface {
	ReadReg(reg uint16) uint8
	WriteReg(reg uint16, val uint8)
}

// Cartridge is the PRG window the bus delegates 0x8000-0xFFFF to.
type Cartridge interface {
	PrgRead(addr uint16) uint8
	PrgWrite(addr uint16, val uint8)
}

// Bus implements mos6502.Memory with NES address decoding. Regions
// with no collaborator attached read as 0 and drop writes, except the
// PPU window, which is considered a wiring error.
type Bus struct {
	ppu  PPU
	cart Cartridge
	ram  []uint8
}

func New() *Bus {
	return &Bus{ram: make([]uint8, NES_BASE_MEMORY)}
}

// AttachPPU connects the picture processor's register file.
func (b *Bus) AttachPPU(p PPU) {
	b.ppu = p
}

// AttachCartridge connects PRG memory.
func (b *Bus) AttachCartridge(c Cartridge) {
	b.cart = c
}

// ClearMem zeroes base RAM.
func (b *Bus) ClearMem() {
	b.ram = make([]uint8, len(b.ram))
}

func (b *Bus) Read(addr uint16) uint8 {
	// https://www.nesdev.org/wiki/CPU_memory_map
	switch {
	case addr <= MAX_NES_BASE_RAM:
		// 0x800-0x1FFF mirrors 0x0000-0x07FF
		return b.ram[addr&0x7FF]
	case addr <= MAX_PPU_REG_MIRRORED:
		// PPU registers are mirrored between 0x2000 and 0x4000
		if b.ppu == nil {
			panic(fmt.Sprintf("ppu read at 0x%04x: not supported (no ppu attached)", addr))
		}
		return b.ppu.ReadReg(addr & 0x2007)
	case addr <= MAX_IO_REG:
		// APU and joysticks; not our department
		return 0
	case addr >= MIN_CART_SPACE && b.cart != nil:
		return b.cart.PrgRead(addr)
	}

	return 0
}

func (b *Bus) Write(addr uint16, val uint8) {
	// https://www.nesdev.org/wiki/CPU_memory_map
	switch {
	case addr <= MAX_NES_BASE_RAM:
		// 0x800-0x1FFF mirrors 0x0000-0x07FF
		b.ram[addr&0x07FF] = val
	case addr <= MAX_PPU_REG_MIRRORED:
		// PPU registers are mirrored between 0x2000 and 0x4000
		if b.ppu == nil {
			panic(fmt.Sprintf("ppu write at 0x%04x: not supported (no ppu attached)", addr))
		}
		b.ppu.WriteReg(addr&0x2007, val)
	case addr <= MAX_IO_REG:
		// APU and joysticks; dropped
	case addr >= MIN_CART_SPACE && b.cart != nil:
		b.cart.PrgWrite(addr, val)
	}
}
