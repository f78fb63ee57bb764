package assembly

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ECMA-335 II.22 metadata table numbers.
const (
	tableModule                 = 0x00
	tableTypeRef                = 0x01
	tableTypeDef                = 0x02
	tableFieldPtr               = 0x03
	tableField                  = 0x04
	tableMethodPtr              = 0x05
	tableMethodDef              = 0x06
	tableParamPtr               = 0x07
	tableParam                  = 0x08
	tableInterfaceImpl          = 0x09
	tableMemberRef              = 0x0A
	tableConstant               = 0x0B
	tableCustomAttribute        = 0x0C
	tableFieldMarshal           = 0x0D
	tableDeclSecurity           = 0x0E
	tableClassLayout            = 0x0F
	tableFieldLayout            = 0x10
	tableStandAloneSig          = 0x11
	tableEventMap               = 0x12
	tableEventPtr               = 0x13
	tableEvent                  = 0x14
	tablePropertyMap            = 0x15
	tablePropertyPtr            = 0x16
	tableProperty               = 0x17
	tableMethodSemantics        = 0x18
	tableMethodImpl             = 0x19
	tableModuleRef              = 0x1A
	tableTypeSpec               = 0x1B
	tableImplMap                = 0x1C
	tableFieldRVA               = 0x1D
	tableEncLog                 = 0x1E
	tableEncMap                 = 0x1F
	tableAssembly               = 0x20
	tableAssemblyProcessor      = 0x21
	tableAssemblyOS             = 0x22
	tableAssemblyRef            = 0x23
	tableAssemblyRefProcessor   = 0x24
	tableAssemblyRefOS          = 0x25
	tableFile                   = 0x26
	tableExportedType           = 0x27
	tableManifestResource       = 0x28
	tableNestedClass            = 0x29
	tableGenericParam           = 0x2A
	tableMethodSpec             = 0x2B
	tableGenericParamConstraint = 0x2C

	knownTables = 0x2D
)

const (
	metadataSignature = 0x424A5342 // "BSJB"

	heapStringsWide = 0x01
	heapGUIDWide    = 0x02
	heapBlobWide    = 0x04
	heapExtraData   = 0x40
)

type columnKind int

const (
	colU16 columnKind = iota
	colU32
	colString
	colGUID
	colBlob
	colTable
	colCoded
)

type column struct {
	kind  columnKind
	table int
	coded *codedIndex
}

// codedIndex describes an ECMA-335 II.24.2.6 coded index. Unused tags are -1.
type codedIndex struct {
	bits   uint
	tables []int
}

func (c *codedIndex) decode(value uint32) (table int, row uint32) {
	mask := uint32(1)<<c.bits - 1
	tag := int(value & mask)
	if tag >= len(c.tables) {
		return -1, 0
	}
	return c.tables[tag], value >> c.bits
}

var (
	typeDefOrRef       = &codedIndex{bits: 2, tables: []int{tableTypeDef, tableTypeRef, tableTypeSpec}}
	hasConstant        = &codedIndex{bits: 2, tables: []int{tableField, tableParam, tableProperty}}
	hasCustomAttribute = &codedIndex{bits: 5, tables: []int{
		tableMethodDef, tableField, tableTypeRef, tableTypeDef, tableParam, tableInterfaceImpl,
		tableMemberRef, tableModule, tableDeclSecurity, tableProperty, tableEvent, tableStandAloneSig,
		tableModuleRef, tableTypeSpec, tableAssembly, tableAssemblyRef, tableFile, tableExportedType,
		tableManifestResource, tableGenericParam, tableGenericParamConstraint, tableMethodSpec,
	}}
	hasFieldMarshal     = &codedIndex{bits: 1, tables: []int{tableField, tableParam}}
	hasDeclSecurity     = &codedIndex{bits: 2, tables: []int{tableTypeDef, tableMethodDef, tableAssembly}}
	memberRefParent     = &codedIndex{bits: 3, tables: []int{tableTypeDef, tableTypeRef, tableModuleRef, tableMethodDef, tableTypeSpec}}
	hasSemantics        = &codedIndex{bits: 1, tables: []int{tableEvent, tableProperty}}
	methodDefOrRef      = &codedIndex{bits: 1, tables: []int{tableMethodDef, tableMemberRef}}
	memberForwarded     = &codedIndex{bits: 1, tables: []int{tableField, tableMethodDef}}
	implementation      = &codedIndex{bits: 2, tables: []int{tableFile, tableAssemblyRef, tableExportedType}}
	customAttributeType = &codedIndex{bits: 3, tables: []int{-1, -1, tableMethodDef, tableMemberRef, -1}}
	resolutionScope     = &codedIndex{bits: 2, tables: []int{tableModule, tableModuleRef, tableAssemblyRef, tableTypeRef}}
	typeOrMethodDef     = &codedIndex{bits: 1, tables: []int{tableTypeDef, tableMethodDef}}
)

func u16() column { return column{kind: colU16} }
func u32() column { return column{kind: colU32} }
func str() column { return column{kind: colString} }
func guid() column { return column{kind: colGUID} }
func blob() column { return column{kind: colBlob} }
func idx(table int) column { return column{kind: colTable, table: table} }
func coded(c *codedIndex) column { return column{kind: colCoded, coded: c} }

// tableSchemas lists the columns of every table defined by ECMA-335 II.22.
var tableSchemas = [knownTables][]column{
	tableModule:                 {u16(), str(), guid(), guid(), guid()},
	tableTypeRef:                {coded(resolutionScope), str(), str()},
	tableTypeDef:                {u32(), str(), str(), coded(typeDefOrRef), idx(tableField), idx(tableMethodDef)},
	tableFieldPtr:               {idx(tableField)},
	tableField:                  {u16(), str(), blob()},
	tableMethodPtr:              {idx(tableMethodDef)},
	tableMethodDef:              {u32(), u16(), u16(), str(), blob(), idx(tableParam)},
	tableParamPtr:               {idx(tableParam)},
	tableParam:                  {u16(), u16(), str()},
	tableInterfaceImpl:          {idx(tableTypeDef), coded(typeDefOrRef)},
	tableMemberRef:              {coded(memberRefParent), str(), blob()},
	tableConstant:               {u16(), coded(hasConstant), blob()},
	tableCustomAttribute:        {coded(hasCustomAttribute), coded(customAttributeType), blob()},
	tableFieldMarshal:           {coded(hasFieldMarshal), blob()},
	tableDeclSecurity:           {u16(), coded(hasDeclSecurity), blob()},
	tableClassLayout:            {u16(), u32(), idx(tableTypeDef)},
	tableFieldLayout:            {u32(), idx(tableField)},
	tableStandAloneSig:          {blob()},
	tableEventMap:               {idx(tableTypeDef), idx(tableEvent)},
	tableEventPtr:               {idx(tableEvent)},
	tableEvent:                  {u16(), str(), coded(typeDefOrRef)},
	tablePropertyMap:            {idx(tableTypeDef), idx(tableProperty)},
	tablePropertyPtr:            {idx(tableProperty)},
	tableProperty:               {u16(), str(), blob()},
	tableMethodSemantics:        {u16(), idx(tableMethodDef), coded(hasSemantics)},
	tableMethodImpl:             {idx(tableTypeDef), coded(methodDefOrRef), coded(methodDefOrRef)},
	tableModuleRef:              {str()},
	tableTypeSpec:               {blob()},
	tableImplMap:                {u16(), coded(memberForwarded), str(), idx(tableModuleRef)},
	tableFieldRVA:               {u32(), idx(tableField)},
	tableEncLog:                 {u32(), u32()},
	tableEncMap:                 {u32()},
	tableAssembly:               {u32(), u16(), u16(), u16(), u16(), u32(), blob(), str(), str()},
	tableAssemblyProcessor:      {u32()},
	tableAssemblyOS:             {u32(), u32(), u32()},
	tableAssemblyRef:            {u16(), u16(), u16(), u16(), u32(), blob(), str(), str(), blob()},
	tableAssemblyRefProcessor:   {u32(), idx(tableAssemblyRef)},
	tableAssemblyRefOS:          {u32(), u32(), u32(), idx(tableAssemblyRef)},
	tableFile:                   {u32(), str(), blob()},
	tableExportedType:           {u32(), u32(), str(), str(), coded(implementation)},
	tableManifestResource:       {u32(), u32(), str(), coded(implementation)},
	tableNestedClass:            {idx(tableTypeDef), idx(tableTypeDef)},
	tableGenericParam:           {u16(), u16(), coded(typeOrMethodDef), str()},
	tableMethodSpec:             {coded(methodDefOrRef), blob()},
	tableGenericParamConstraint: {idx(tableGenericParam), coded(typeDefOrRef)},
}

// metadata is a decoded metadata root with its heaps and table stream.
type metadata struct {
	strings []byte
	blobs   []byte
	tables  *tableStream
}

func parseMetadata(data []byte) (*metadata, error) {
	streams, err := parseStreamHeaders(data)
	if err != nil {
		return nil, err
	}
	tableData, ok := streams["#~"]
	if !ok {
		tableData, ok = streams["#-"]
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing table stream", ErrMalformedMetadata)
	}
	tables, err := parseTableStream(tableData)
	if err != nil {
		return nil, err
	}
	return &metadata{
		strings: streams["#Strings"],
		blobs:   streams["#Blob"],
		tables:  tables,
	}, nil
}

// parseStreamHeaders reads the metadata root (ECMA-335 II.24.2.1) and returns
// the stream contents keyed by stream name.
func parseStreamHeaders(data []byte) (map[string][]byte, error) {
	if len(data) < 16 || binary.LittleEndian.Uint32(data) != metadataSignature {
		return nil, fmt.Errorf("%w: bad metadata signature", ErrMalformedMetadata)
	}
	versionLen := int(binary.LittleEndian.Uint32(data[12:]))
	pos := 16 + versionLen
	if versionLen < 0 || pos+4 > len(data) {
		return nil, fmt.Errorf("%w: truncated metadata root", ErrMalformedMetadata)
	}
	count := int(binary.LittleEndian.Uint16(data[pos+2:]))
	pos += 4

	streams := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: truncated stream header", ErrMalformedMetadata)
		}
		offset := int(binary.LittleEndian.Uint32(data[pos:]))
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		pos += 8

		end := bytes.IndexByte(data[pos:], 0)
		if end < 0 || end > 32 {
			return nil, fmt.Errorf("%w: bad stream name", ErrMalformedMetadata)
		}
		name := string(data[pos : pos+end])
		pos += (end + 4) &^ 3

		if offset < 0 || size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("%w: stream %s out of bounds", ErrMalformedMetadata, name)
		}
		streams[name] = data[offset : offset+size]
	}
	return streams, nil
}

// tableStream is the decoded header of the #~ stream (ECMA-335 II.24.2.6).
type tableStream struct {
	data      []byte
	heapSizes uint8
	rows      [64]uint32
	offsets   [knownTables]int
	rowSizes  [knownTables]int
	widths    [knownTables][]int
}

func parseTableStream(data []byte) (*tableStream, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("%w: truncated table stream", ErrMalformedMetadata)
	}
	ts := &tableStream{data: data, heapSizes: data[6]}
	valid := binary.LittleEndian.Uint64(data[8:])

	pos := 24
	for i := 0; i < 64; i++ {
		if valid&(uint64(1)<<i) == 0 {
			continue
		}
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated row counts", ErrMalformedMetadata)
		}
		ts.rows[i] = binary.LittleEndian.Uint32(data[pos:])
		pos += 4
	}
	if ts.heapSizes&heapExtraData != 0 {
		pos += 4
	}

	for t := 0; t < knownTables; t++ {
		widths := make([]int, len(tableSchemas[t]))
		size := 0
		for c, col := range tableSchemas[t] {
			widths[c] = ts.columnWidth(col)
			size += widths[c]
		}
		ts.widths[t] = widths
		ts.rowSizes[t] = size
		ts.offsets[t] = pos
		pos += size * int(ts.rows[t])
	}
	return ts, nil
}

func (ts *tableStream) columnWidth(col column) int {
	switch col.kind {
	case colU16:
		return 2
	case colU32:
		return 4
	case colString:
		return ts.heapWidth(heapStringsWide)
	case colGUID:
		return ts.heapWidth(heapGUIDWide)
	case colBlob:
		return ts.heapWidth(heapBlobWide)
	case colTable:
		if ts.rows[col.table] < 1<<16 {
			return 2
		}
		return 4
	default:
		limit := uint32(1) << (16 - col.coded.bits)
		for _, t := range col.coded.tables {
			if t >= 0 && ts.rows[t] >= limit {
				return 4
			}
		}
		return 2
	}
}

func (ts *tableStream) heapWidth(flag uint8) int {
	if ts.heapSizes&flag != 0 {
		return 4
	}
	return 2
}

// row returns the column values of the 1-based row index in table.
func (ts *tableStream) row(table int, index uint32) ([]uint32, error) {
	if table < 0 || table >= knownTables || index == 0 || index > ts.rows[table] {
		return nil, fmt.Errorf("%w: row %d of table %#x does not exist", ErrMalformedMetadata, index, table)
	}
	start := ts.offsets[table] + int(index-1)*ts.rowSizes[table]
	if start+ts.rowSizes[table] > len(ts.data) {
		return nil, fmt.Errorf("%w: table %#x truncated", ErrMalformedMetadata, table)
	}
	values := make([]uint32, len(ts.widths[table]))
	pos := start
	for i, width := range ts.widths[table] {
		if width == 2 {
			values[i] = uint32(binary.LittleEndian.Uint16(ts.data[pos:]))
		} else {
			values[i] = binary.LittleEndian.Uint32(ts.data[pos:])
		}
		pos += width
	}
	return values, nil
}

func (m *metadata) heapString(index uint32) (string, error) {
	if int(index) >= len(m.strings) {
		if index == 0 {
			return "", nil
		}
		return "", fmt.Errorf("%w: string index %d out of range", ErrMalformedMetadata, index)
	}
	rest := m.strings[index:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", ErrMalformedMetadata, index)
	}
	return string(rest[:end]), nil
}

func (m *metadata) heapBlob(index uint32) ([]byte, error) {
	if int(index) >= len(m.blobs) {
		if index == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: blob index %d out of range", ErrMalformedMetadata, index)
	}
	length, n, ok := decodeCompressedUint(m.blobs[index:])
	if !ok {
		return nil, fmt.Errorf("%w: bad blob length at %d", ErrMalformedMetadata, index)
	}
	start := int(index) + n
	if start+int(length) > len(m.blobs) {
		return nil, fmt.Errorf("%w: blob at %d truncated", ErrMalformedMetadata, index)
	}
	return m.blobs[start : start+int(length)], nil
}

// decodeCompressedUint decodes an ECMA-335 II.23.2 compressed unsigned
// integer and returns its value and encoded size.
func decodeCompressedUint(b []byte) (uint32, int, bool) {
	if len(b) == 0 {
		return 0, 0, false
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, true
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, false
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, true
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, false
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, true
	default:
		return 0, 0, false
	}
}
