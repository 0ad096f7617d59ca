package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// incrementalUpdate appends objs as a PDF incremental update: the new object bodies,
// a cross-reference section and a trailer pointing back at the previous one. The
// original bytes are kept verbatim, so the output depends only on the inputs.
type incrementalUpdate struct {
	base    []byte
	prev    int64
	size    int
	root    *types.IndirectRef
	info    *types.IndirectRef
	id      types.Array
	objects map[int]updatedObject
}

type updatedObject struct {
	gen int
	obj types.Object
}

func newIncrementalUpdate(base []byte, size int, root, info *types.IndirectRef, id types.Array) (*incrementalUpdate, error) {
	prev, err := lastStartXRef(base)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.New("pdf has no catalog")
	}
	return &incrementalUpdate{
		base:    base,
		prev:    prev,
		size:    size,
		root:    root,
		info:    info,
		id:      id,
		objects: map[int]updatedObject{},
	}, nil
}

// add allocates the next object number for obj.
func (u *incrementalUpdate) add(obj types.Object) types.IndirectRef {
	nr := u.size
	u.size++
	u.objects[nr] = updatedObject{obj: obj}
	return *types.NewIndirectRef(nr, 0)
}

// replace supersedes an existing object.
func (u *incrementalUpdate) replace(ref types.IndirectRef, obj types.Object) {
	u.objects[ref.ObjectNumber.Value()] = updatedObject{gen: ref.GenerationNumber.Value(), obj: obj}
}

func (u *incrementalUpdate) bytes() []byte {
	var b bytes.Buffer
	b.Write(u.base)
	if !bytes.HasSuffix(u.base, []byte("\n")) {
		b.WriteByte('\n')
	}

	nrs := make([]int, 0, len(u.objects))
	for nr := range u.objects {
		nrs = append(nrs, nr)
	}
	sort.Ints(nrs)

	offsets := make(map[int]int, len(nrs))
	for _, nr := range nrs {
		o := u.objects[nr]
		offsets[nr] = b.Len()
		fmt.Fprintf(&b, "%d %d obj\n%s\nendobj\n", nr, o.gen, pdfString(o.obj))
	}

	xref := b.Len()
	b.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for _, nr := range nrs {
		fmt.Fprintf(&b, "%d 1\n%010d %05d n \n", nr, offsets[nr], u.objects[nr].gen)
	}

	trailer := types.Dict{
		"Size": types.Integer(u.size),
		"Root": *u.root,
		"Prev": types.Integer(u.prev),
	}
	if u.info != nil {
		trailer["Info"] = *u.info
	}
	if len(u.id) > 0 {
		trailer["ID"] = u.id
	}
	fmt.Fprintf(&b, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", pdfString(trailer), xref)
	return b.Bytes()
}

// pdfString serializes o with dictionary keys in sorted order.
func pdfString(o types.Object) string {
	switch v := o.(type) {
	case types.Dict:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("<<")
		for _, k := range keys {
			sb.WriteString(types.Name(k).PDFString())
			sb.WriteByte(' ')
			if v[k] == nil {
				sb.WriteString("null")
			} else {
				sb.WriteString(pdfString(v[k]))
			}
		}
		sb.WriteString(">>")
		return sb.String()
	case types.Array:
		parts := make([]string, len(v))
		for i, e := range v {
			if e == nil {
				parts[i] = "null"
				continue
			}
			parts[i] = pdfString(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return o.PDFString()
	}
}

// lastStartXRef returns the offset recorded after the final startxref keyword.
func lastStartXRef(data []byte) (int64, error) {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0, errors.New("pdf has no startxref")
	}
	fields := strings.Fields(string(data[i+len("startxref"):]))
	if len(fields) == 0 {
		return 0, errors.New("pdf startxref has no offset")
	}
	off, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("pdf startxref offset %q is invalid", fields[0])
	}
	return off, nil
}
