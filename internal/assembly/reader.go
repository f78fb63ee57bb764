package assembly

import (
	"crypto/sha1" //nolint:gosec // public key tokens are defined in terms of SHA-1
	"debug/pe"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const (
	cliHeaderDirectory = 14
	cliHeaderSize      = 72

	targetFrameworkNamespace = "System.Runtime.Versioning"
	targetFrameworkType      = "TargetFrameworkAttribute"
	netCoreAppIdentifier     = ".NETCoreApp"
)

// ReadFromFile decodes the assembly identity stored in the file at path.
// Any failure is returned as a *DecodeError.
func ReadFromFile(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	image, err := pe.NewFile(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %v", ErrNotAssembly, err)}
	}
	defer image.Close()

	info, err := decodeImage(image)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	info.Path = path
	return info, nil
}

func decodeImage(image *pe.File) (*Info, error) {
	dir, ok := cliDirectory(image)
	if !ok || dir.VirtualAddress == 0 {
		return nil, fmt.Errorf("%w: missing CLI header", ErrNoMetadata)
	}
	header, err := readRVA(image, dir.VirtualAddress, cliHeaderSize)
	if err != nil {
		return nil, err
	}
	metaRVA := binary.LittleEndian.Uint32(header[8:])
	metaSize := binary.LittleEndian.Uint32(header[12:])
	if metaRVA == 0 || metaSize == 0 {
		return nil, fmt.Errorf("%w: empty metadata directory", ErrNoMetadata)
	}
	raw, err := readRVA(image, metaRVA, metaSize)
	if err != nil {
		return nil, err
	}
	md, err := parseMetadata(raw)
	if err != nil {
		return nil, err
	}
	return md.assemblyInfo()
}

func cliDirectory(image *pe.File) (pe.DataDirectory, bool) {
	switch oh := image.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > cliHeaderDirectory {
			return oh.DataDirectory[cliHeaderDirectory], true
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > cliHeaderDirectory {
			return oh.DataDirectory[cliHeaderDirectory], true
		}
	}
	return pe.DataDirectory{}, false
}

// readRVA returns size bytes of the section data mapped at rva.
func readRVA(image *pe.File, rva, size uint32) ([]byte, error) {
	for _, section := range image.Sections {
		span := section.VirtualSize
		if section.Size > span {
			span = section.Size
		}
		if rva < section.VirtualAddress || rva >= section.VirtualAddress+span {
			continue
		}
		data, err := section.Data()
		if err != nil {
			return nil, fmt.Errorf("%w: read section %s: %v", ErrMalformedMetadata, section.Name, err)
		}
		start := uint64(rva - section.VirtualAddress)
		end := start + uint64(size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: rva %#x+%d exceeds section %s", ErrMalformedMetadata, rva, size, section.Name)
		}
		return data[start:end], nil
	}
	return nil, fmt.Errorf("%w: rva %#x is not mapped by any section", ErrMalformedMetadata, rva)
}

func (m *metadata) assemblyInfo() (*Info, error) {
	if m.tables.rows[tableAssembly] == 0 {
		return nil, fmt.Errorf("%w: no Assembly row", ErrNoMetadata)
	}
	row, err := m.tables.row(tableAssembly, 1)
	if err != nil {
		return nil, err
	}
	publicKey, err := m.heapBlob(row[6])
	if err != nil {
		return nil, err
	}
	name, err := m.heapString(row[7])
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty assembly name", ErrMalformedMetadata)
	}
	culture, err := m.heapString(row[8])
	if err != nil {
		return nil, err
	}
	if culture == "" {
		culture = NeutralCulture
	}

	info := &Info{
		Name:           name,
		Version:        NewVersion(int(row[1]), int(row[2]), int(row[3]), int(row[4])),
		Culture:        culture,
		PublicKeyToken: publicKeyToken(publicKey),
	}

	moniker, err := m.targetFramework()
	if err != nil {
		return nil, err
	}
	info.TargetFramework = moniker
	info.NetCoreVersion = netCoreVersion(moniker)
	return info, nil
}

// targetFramework returns the moniker passed to the assembly-level
// TargetFrameworkAttribute, or "" when there is none.
func (m *metadata) targetFramework() (string, error) {
	for i := uint32(1); i <= m.tables.rows[tableCustomAttribute]; i++ {
		attr, err := m.tables.row(tableCustomAttribute, i)
		if err != nil {
			return "", err
		}
		if table, _ := hasCustomAttribute.decode(attr[0]); table != tableAssembly {
			continue
		}
		ok, err := m.isTargetFrameworkCtor(attr[1])
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		value, err := m.heapBlob(attr[2])
		if err != nil {
			return "", err
		}
		return firstStringArgument(value), nil
	}
	return "", nil
}

func (m *metadata) isTargetFrameworkCtor(ctor uint32) (bool, error) {
	table, index := customAttributeType.decode(ctor)
	if table != tableMemberRef {
		return false, nil
	}
	member, err := m.tables.row(tableMemberRef, index)
	if err != nil {
		return false, err
	}
	parent, typeIndex := memberRefParent.decode(member[0])
	if parent != tableTypeRef {
		return false, nil
	}
	typeRef, err := m.tables.row(tableTypeRef, typeIndex)
	if err != nil {
		return false, err
	}
	name, err := m.heapString(typeRef[1])
	if err != nil {
		return false, err
	}
	namespace, err := m.heapString(typeRef[2])
	if err != nil {
		return false, err
	}
	return name == targetFrameworkType && namespace == targetFrameworkNamespace, nil
}

// firstStringArgument decodes the leading SerString fixed argument of a
// custom attribute value blob (ECMA-335 II.23.3).
func firstStringArgument(value []byte) string {
	if len(value) < 3 || binary.LittleEndian.Uint16(value) != 0x0001 {
		return ""
	}
	value = value[2:]
	if value[0] == 0xFF {
		return ""
	}
	length, n, ok := decodeCompressedUint(value)
	if !ok || n+int(length) > len(value) {
		return ""
	}
	return string(value[n : n+int(length)])
}

// netCoreVersion extracts v from ".NETCoreApp,Version=vX.Y".
func netCoreVersion(moniker string) Version {
	identifier, rest, ok := strings.Cut(moniker, ",")
	if !ok || strings.TrimSpace(identifier) != netCoreAppIdentifier {
		return Version{}
	}
	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Version") {
			continue
		}
		version, err := ParseVersion(strings.TrimPrefix(strings.TrimSpace(value), "v"))
		if err != nil {
			return Version{}
		}
		return version
	}
	return Version{}
}

// publicKeyToken is the last eight bytes of the SHA-1 of the key, reversed.
func publicKeyToken(publicKey []byte) string {
	if len(publicKey) == 0 {
		return NullPublicKeyToken
	}
	sum := sha1.Sum(publicKey) //nolint:gosec
	token := make([]byte, 8)
	for i := 0; i < 8; i++ {
		token[i] = sum[len(sum)-1-i]
	}
	return hex.EncodeToString(token)
}
