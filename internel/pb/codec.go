package pb

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, kept in sync with payload.proto.
const (
	payloadType    protowire.Number = 1
	payloadMsg     protowire.Number = 2
	payloadUser    protowire.Number = 3
	payloadRequest protowire.Number = 4
	payloadListing protowire.Number = 5
	payloadUnit    protowire.Number = 6
	payloadDir     protowire.Number = 7

	userId       protowire.Number = 1
	userEmail    protowire.Number = 2
	userPassword protowire.Number = 3
	userRoot     protowire.Number = 4

	requestAction  protowire.Number = 1
	requestPath    protowire.Number = 2
	requestNewName protowire.Number = 3

	listingPath        protowire.Number = 1
	listingDirectories protowire.Number = 2
	listingFiles       protowire.Number = 3

	dirPath protowire.Number = 1
	dirName protowire.Number = 2

	unitOwner      protowire.Number = 1
	unitPath       protowire.Number = 2
	unitName       protowire.Number = 3
	unitFullSize   protowire.Number = 4
	unitChecksum   protowire.Number = 5
	unitContent    protowire.Number = 6
	unitIsStart    protowire.Number = 7
	unitIsEnd      protowire.Number = 8
	unitPart       protowire.Number = 9
	unitCompressed protowire.Number = 10
)

var errWireType = errors.New("unexpected wire type")

func Marshal(p *Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.New("nil payload")
	}
	var b []byte
	b = appendVarint(b, payloadType, uint64(p.Type))
	b = appendString(b, payloadMsg, p.Msg)
	if p.User != nil {
		b = appendMessage(b, payloadUser, marshalUser(p.User))
	}
	switch d := p.Data.(type) {
	case nil:
	case *Payload_Request:
		b = appendMessage(b, payloadRequest, marshalRequest(d.Request))
	case *Payload_Listing:
		b = appendMessage(b, payloadListing, marshalListing(d.Listing))
	case *Payload_Unit:
		b = appendMessage(b, payloadUnit, marshalUnit(d.Unit))
	case *Payload_Dir:
		b = appendMessage(b, payloadDir, marshalDir(d.Dir))
	default:
		return nil, errors.Errorf("unknown payload variant %T", d)
	}
	return b, nil
}

func Unmarshal(b []byte, p *Payload) error {
	*p = Payload{}
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case payloadType:
			v, n, err := readVarint(typ, b)
			p.Type = int32(v)
			return n, err
		case payloadMsg:
			v, n, err := readBytes(typ, b)
			p.Msg = string(v)
			return n, err
		case payloadUser:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			p.User = &User{}
			return n, unmarshalUser(v, p.User)
		case payloadRequest:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			r := &ContentRequest{}
			p.Data = &Payload_Request{Request: r}
			return n, unmarshalRequest(v, r)
		case payloadListing:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			l := &Listing{}
			p.Data = &Payload_Listing{Listing: l}
			return n, unmarshalListing(v, l)
		case payloadUnit:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			u := &TransferUnit{}
			p.Data = &Payload_Unit{Unit: u}
			return n, unmarshalUnit(v, u)
		case payloadDir:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			d := &CreateDir{}
			p.Data = &Payload_Dir{Dir: d}
			return n, unmarshalDir(v, d)
		}
		return 0, nil
	})
}

func marshalUser(u *User) []byte {
	var b []byte
	b = appendVarint(b, userId, uint64(u.Id))
	b = appendString(b, userEmail, u.Email)
	b = appendString(b, userPassword, u.Password)
	b = appendString(b, userRoot, u.Root)
	return b
}

func unmarshalUser(b []byte, u *User) error {
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case userId:
			v, n, err := readVarint(typ, b)
			u.Id = int64(v)
			return n, err
		case userEmail:
			v, n, err := readBytes(typ, b)
			u.Email = string(v)
			return n, err
		case userPassword:
			v, n, err := readBytes(typ, b)
			u.Password = string(v)
			return n, err
		case userRoot:
			v, n, err := readBytes(typ, b)
			u.Root = string(v)
			return n, err
		}
		return 0, nil
	})
}

func marshalRequest(r *ContentRequest) []byte {
	var b []byte
	if r == nil {
		return b
	}
	b = appendVarint(b, requestAction, uint64(r.Action))
	b = appendString(b, requestPath, r.Path)
	b = appendString(b, requestNewName, r.NewName)
	return b
}

func unmarshalRequest(b []byte, r *ContentRequest) error {
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case requestAction:
			v, n, err := readVarint(typ, b)
			r.Action = int32(v)
			return n, err
		case requestPath:
			v, n, err := readBytes(typ, b)
			r.Path = string(v)
			return n, err
		case requestNewName:
			v, n, err := readBytes(typ, b)
			r.NewName = string(v)
			return n, err
		}
		return 0, nil
	})
}

func marshalListing(l *Listing) []byte {
	var b []byte
	if l == nil {
		return b
	}
	for _, s := range l.Path {
		b = appendRepeated(b, listingPath, s)
	}
	for _, s := range l.Directories {
		b = appendRepeated(b, listingDirectories, s)
	}
	for _, s := range l.Files {
		b = appendRepeated(b, listingFiles, s)
	}
	return b
}

func unmarshalListing(b []byte, l *Listing) error {
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *[]string
		switch num {
		case listingPath:
			dst = &l.Path
		case listingDirectories:
			dst = &l.Directories
		case listingFiles:
			dst = &l.Files
		default:
			return 0, nil
		}
		v, n, err := readBytes(typ, b)
		*dst = append(*dst, string(v))
		return n, err
	})
}

func marshalDir(d *CreateDir) []byte {
	var b []byte
	if d == nil {
		return b
	}
	b = appendString(b, dirPath, d.Path)
	b = appendString(b, dirName, d.Name)
	return b
}

func unmarshalDir(b []byte, d *CreateDir) error {
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case dirPath:
			v, n, err := readBytes(typ, b)
			d.Path = string(v)
			return n, err
		case dirName:
			v, n, err := readBytes(typ, b)
			d.Name = string(v)
			return n, err
		}
		return 0, nil
	})
}

func marshalUnit(u *TransferUnit) []byte {
	if u == nil {
		return nil
	}
	b := make([]byte, 0, len(u.Content)+256)
	if u.Owner != nil {
		b = appendMessage(b, unitOwner, marshalUser(u.Owner))
	}
	b = appendString(b, unitPath, u.Path)
	b = appendString(b, unitName, u.Name)
	b = appendVarint(b, unitFullSize, uint64(u.FullSize))
	b = appendString(b, unitChecksum, u.Checksum)
	if len(u.Content) > 0 {
		b = protowire.AppendTag(b, unitContent, protowire.BytesType)
		b = protowire.AppendBytes(b, u.Content)
	}
	b = appendVarint(b, unitIsStart, protowire.EncodeBool(u.IsStart))
	b = appendVarint(b, unitIsEnd, protowire.EncodeBool(u.IsEnd))
	b = appendVarint(b, unitPart, uint64(u.Part))
	b = appendVarint(b, unitCompressed, protowire.EncodeBool(u.Compressed))
	return b
}

func unmarshalUnit(b []byte, u *TransferUnit) error {
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case unitOwner:
			v, n, err := readBytes(typ, b)
			if err != nil {
				return n, err
			}
			u.Owner = &User{}
			return n, unmarshalUser(v, u.Owner)
		case unitPath:
			v, n, err := readBytes(typ, b)
			u.Path = string(v)
			return n, err
		case unitName:
			v, n, err := readBytes(typ, b)
			u.Name = string(v)
			return n, err
		case unitFullSize:
			v, n, err := readVarint(typ, b)
			u.FullSize = int64(v)
			return n, err
		case unitChecksum:
			v, n, err := readBytes(typ, b)
			u.Checksum = string(v)
			return n, err
		case unitContent:
			v, n, err := readBytes(typ, b)
			u.Content = v
			return n, err
		case unitIsStart:
			v, n, err := readVarint(typ, b)
			u.IsStart = protowire.DecodeBool(v)
			return n, err
		case unitIsEnd:
			v, n, err := readVarint(typ, b)
			u.IsEnd = protowire.DecodeBool(v)
			return n, err
		case unitPart:
			v, n, err := readVarint(typ, b)
			u.Part = int32(v)
			return n, err
		case unitCompressed:
			v, n, err := readVarint(typ, b)
			u.Compressed = protowire.DecodeBool(v)
			return n, err
		}
		return 0, nil
	})
}

// consume walks the fields of one message. field returns how many bytes of the
// value it consumed; 0 means the field is unknown and gets skipped.
func consume(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "field %d", num)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

func readVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func readBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errWireType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendRepeated keeps empty strings, their position in the list matters.
func appendRepeated(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}
