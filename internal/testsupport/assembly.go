package testsupport

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// AssemblySpec describes the identity written by WriteAssembly.
type AssemblySpec struct {
	Name      string
	Version   [4]uint16
	Culture   string
	PublicKey []byte
	// TargetFramework, when set, is emitted as an assembly-level
	// System.Runtime.Versioning.TargetFrameworkAttribute.
	TargetFramework string
	// Native omits the CLI header, producing a plain PE image.
	Native bool
}

const (
	peSignatureOffset = 0x80
	sectionFileOffset = 0x200
	sectionRVA        = 0x2000
	fileAlignment     = 0x200
	cliHeaderSize     = 72
)

// WriteAssembly writes a minimal .NET assembly for spec to path, creating
// parent directories as needed.
func WriteAssembly(t testing.TB, path string, spec AssemblySpec) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, BuildAssembly(spec), 0o644); err != nil {
		t.Fatalf("write assembly %s: %v", path, err)
	}
}

// BuildAssembly returns the bytes of a PE32 image holding one metadata
// Module row, one Assembly row and, optionally, a TargetFrameworkAttribute.
func BuildAssembly(spec AssemblySpec) []byte {
	var section []byte
	if !spec.Native {
		metadata := buildMetadata(spec)
		cli := make([]byte, cliHeaderSize)
		binary.LittleEndian.PutUint32(cli[0:], cliHeaderSize)
		binary.LittleEndian.PutUint16(cli[4:], 2)
		binary.LittleEndian.PutUint16(cli[6:], 5)
		binary.LittleEndian.PutUint32(cli[8:], sectionRVA+cliHeaderSize)
		binary.LittleEndian.PutUint32(cli[12:], uint32(len(metadata)))
		binary.LittleEndian.PutUint32(cli[16:], 1) // ILONLY
		section = append(cli, metadata...)
	} else {
		section = make([]byte, 16)
	}
	rawSize := alignUp(len(section), fileAlignment)

	var buf bytes.Buffer
	dos := make([]byte, peSignatureOffset)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], peSignatureOffset)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	optional := pe.OptionalHeader32{
		Magic:                 0x10b,
		SizeOfCode:            uint32(rawSize),
		BaseOfCode:            sectionRVA,
		ImageBase:             0x10000000,
		SectionAlignment:      0x2000,
		FileAlignment:         fileAlignment,
		MajorSubsystemVersion: 4,
		SizeOfImage:           uint32(sectionRVA + alignUp(len(section), 0x2000)),
		SizeOfHeaders:         sectionFileOffset,
		Subsystem:             3,
		DllCharacteristics:    0x8540,
		NumberOfRvaAndSizes:   16,
	}
	if !spec.Native {
		optional.DataDirectory[14] = pe.DataDirectory{VirtualAddress: sectionRVA, Size: cliHeaderSize}
	}

	header := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(optional)),
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_32BIT_MACHINE | pe.IMAGE_FILE_DLL,
	}
	text := pe.SectionHeader32{
		VirtualSize:      uint32(len(section)),
		VirtualAddress:   sectionRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: sectionFileOffset,
		Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
	}
	copy(text.Name[:], ".text")

	mustWrite(&buf, header)
	mustWrite(&buf, optional)
	mustWrite(&buf, text)

	buf.Write(make([]byte, sectionFileOffset-buf.Len()))
	buf.Write(section)
	buf.Write(make([]byte, rawSize-len(section)))
	return buf.Bytes()
}

func buildMetadata(spec AssemblySpec) []byte {
	strs := newHeap(false)
	blobs := newHeap(true)

	moduleName := strs.add([]byte(spec.Name + ".dll"))
	assemblyName := strs.add([]byte(spec.Name))
	var culture uint16
	if spec.Culture != "" {
		culture = strs.add([]byte(spec.Culture))
	}
	var publicKey uint16
	var flags uint32
	if len(spec.PublicKey) > 0 {
		publicKey = blobs.add(spec.PublicKey)
		flags = 0x0001
	}

	valid := uint64(1)<<0x00 | uint64(1)<<0x20
	var rows bytes.Buffer
	counts := []uint32{1}

	// Module
	putU16(&rows, 0, moduleName, 0, 0, 0)

	if spec.TargetFramework != "" {
		valid |= uint64(1)<<0x01 | uint64(1)<<0x0A | uint64(1)<<0x0C
		counts = append(counts, 1, 1, 1)

		typeName := strs.add([]byte("TargetFrameworkAttribute"))
		typeNamespace := strs.add([]byte("System.Runtime.Versioning"))
		ctorName := strs.add([]byte(".ctor"))
		ctorSig := blobs.add([]byte{0x20, 0x01, 0x01, 0x0E})

		value := []byte{0x01, 0x00}
		value = append(value, compressedUint(len(spec.TargetFramework))...)
		value = append(value, spec.TargetFramework...)
		value = append(value, 0x00, 0x00)
		attrValue := blobs.add(value)

		// TypeRef: ResolutionScope, TypeName, TypeNamespace
		putU16(&rows, 0, typeName, typeNamespace)
		// MemberRef: Class = TypeRef #1, Name, Signature
		putU16(&rows, 1<<3|1, ctorName, ctorSig)
		// CustomAttribute: Parent = Assembly #1, Type = MemberRef #1, Value
		putU16(&rows, 1<<5|14, 1<<3|3, attrValue)
	}
	counts = append(counts, 1)

	// Assembly
	binary.Write(&rows, binary.LittleEndian, uint32(0x8004)) //nolint:errcheck
	putU16(&rows, spec.Version[0], spec.Version[1], spec.Version[2], spec.Version[3])
	binary.Write(&rows, binary.LittleEndian, flags) //nolint:errcheck
	putU16(&rows, publicKey, assemblyName, culture)

	var tables bytes.Buffer
	binary.Write(&tables, binary.LittleEndian, uint32(0)) //nolint:errcheck
	tables.Write([]byte{2, 0, 0, 1})
	binary.Write(&tables, binary.LittleEndian, valid)     //nolint:errcheck
	binary.Write(&tables, binary.LittleEndian, uint64(0)) //nolint:errcheck
	for _, count := range counts {
		binary.Write(&tables, binary.LittleEndian, count) //nolint:errcheck
	}
	tables.Write(rows.Bytes())
	pad4(&tables)

	type stream struct {
		name string
		data []byte
	}
	streams := []stream{
		{name: "#~", data: tables.Bytes()},
		{name: "#Strings", data: strs.bytes()},
		{name: "#Blob", data: blobs.bytes()},
	}

	version := []byte("v4.0.30319\x00\x00")
	headerSize := 16 + len(version) + 4
	for _, s := range streams {
		headerSize += 8 + alignUp(len(s.name)+1, 4)
	}

	var root bytes.Buffer
	binary.Write(&root, binary.LittleEndian, uint32(0x424A5342)) //nolint:errcheck
	putU16(&root, 1, 1)
	binary.Write(&root, binary.LittleEndian, uint32(0))            //nolint:errcheck
	binary.Write(&root, binary.LittleEndian, uint32(len(version))) //nolint:errcheck
	root.Write(version)
	putU16(&root, 0, uint16(len(streams)))

	offset := headerSize
	for _, s := range streams {
		binary.Write(&root, binary.LittleEndian, uint32(offset))      //nolint:errcheck
		binary.Write(&root, binary.LittleEndian, uint32(len(s.data))) //nolint:errcheck
		name := make([]byte, alignUp(len(s.name)+1, 4))
		copy(name, s.name)
		root.Write(name)
		offset += len(s.data)
	}
	for _, s := range streams {
		root.Write(s.data)
	}
	return root.Bytes()
}

// heap accumulates a #Strings (null-terminated) or #Blob (length-prefixed)
// heap. Index 0 is the empty entry.
type heap struct {
	buf    bytes.Buffer
	prefix bool
}

func newHeap(prefix bool) *heap {
	h := &heap{prefix: prefix}
	h.buf.WriteByte(0)
	return h
}

func (h *heap) add(value []byte) uint16 {
	index := uint16(h.buf.Len())
	if h.prefix {
		h.buf.Write(compressedUint(len(value)))
		h.buf.Write(value)
	} else {
		h.buf.Write(value)
		h.buf.WriteByte(0)
	}
	return index
}

func (h *heap) bytes() []byte {
	pad4(&h.buf)
	return h.buf.Bytes()
}

func compressedUint(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x4000:
		return []byte{byte(n>>8) | 0x80, byte(n)}
	default:
		return []byte{byte(n>>24) | 0xC0, byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

func putU16(buf *bytes.Buffer, values ...uint16) {
	for _, v := range values {
		binary.Write(buf, binary.LittleEndian, v) //nolint:errcheck
	}
}

func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}

func pad4(buf *bytes.Buffer) {
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
