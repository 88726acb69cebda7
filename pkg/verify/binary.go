package verify

import (
	"debug/elf"
	"fmt"
)

// elfArchNames maps the ELF machine values seen on AppImage releases
// to the names their publishers use, for error messages.
var elfArchNames = map[elf.Machine]string{
	elf.EM_X86_64:  "x86_64",
	elf.EM_AARCH64: "aarch64",
	elf.EM_386:     "i386",
	elf.EM_ARM:     "arm",
	elf.EM_RISCV:   "riscv64",
}

// VerifyAppImageBinary checks that path is an ELF executable built for
// 64-bit x86 — the only binary shape this installer places. Asset
// selection filters on filename alone and checksum verification only
// confirms byte-identity, so a mis-tagged upload (an aarch64 build
// named x86_64, a tarball named .AppImage) is caught here before it
// reaches the install path.
func VerifyAppImageBinary(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("not an ELF binary: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS64 {
		return fmt.Errorf("binary is %s, need a 64-bit AppImage", f.Class)
	}
	if f.Machine != elf.EM_X86_64 {
		name, known := elfArchNames[f.Machine]
		if !known {
			name = fmt.Sprintf("unknown machine %d", f.Machine)
		}
		return fmt.Errorf("binary built for %s, need x86_64", name)
	}
	return nil
}
