package pb

// Payload is one command on the wire. Type selects the meaning; Data carries the
// variant that belongs to it, if any.
type Payload struct {
	Type int32
	Msg  string
	User *User
	// Types that are assignable to Data:
	//
	//	*Payload_Request
	//	*Payload_Listing
	//	*Payload_Unit
	//	*Payload_Dir
	Data isPayload_Data
}

type isPayload_Data interface {
	isPayload_Data()
}

type Payload_Request struct {
	Request *ContentRequest
}

type Payload_Listing struct {
	Listing *Listing
}

type Payload_Unit struct {
	Unit *TransferUnit
}

type Payload_Dir struct {
	Dir *CreateDir
}

func (*Payload_Request) isPayload_Data() {}
func (*Payload_Listing) isPayload_Data() {}
func (*Payload_Unit) isPayload_Data()    {}
func (*Payload_Dir) isPayload_Data()     {}

func (x *Payload) GetType() int32 {
	if x != nil {
		return x.Type
	}
	return 0
}

func (x *Payload) GetMsg() string {
	if x != nil {
		return x.Msg
	}
	return ""
}

func (x *Payload) GetUser() *User {
	if x != nil {
		return x.User
	}
	return nil
}

func (x *Payload) GetRequest() *ContentRequest {
	if x, ok := x.GetData().(*Payload_Request); ok {
		return x.Request
	}
	return nil
}

func (x *Payload) GetListing() *Listing {
	if x, ok := x.GetData().(*Payload_Listing); ok {
		return x.Listing
	}
	return nil
}

func (x *Payload) GetUnit() *TransferUnit {
	if x, ok := x.GetData().(*Payload_Unit); ok {
		return x.Unit
	}
	return nil
}

func (x *Payload) GetDir() *CreateDir {
	if x, ok := x.GetData().(*Payload_Dir); ok {
		return x.Dir
	}
	return nil
}

func (x *Payload) GetData() isPayload_Data {
	if x != nil {
		return x.Data
	}
	return nil
}

type User struct {
	Id       int64
	Email    string
	Password string
	// Root overrides the provider's storage location for this user.
	Root string
}

func (x *User) GetEmail() string {
	if x != nil {
		return x.Email
	}
	return ""
}

// SameIdentity reports whether both users name the same account.
func (x *User) SameIdentity(o *User) bool {
	return x != nil && o != nil && x.Email != "" && x.Email == o.Email
}

type ContentRequest struct {
	Action  int32
	Path    string
	NewName string
}

type Listing struct {
	// Path is the logical path split into segments, always starting with "root".
	Path        []string
	Directories []string
	Files       []string
}

func (x *Listing) GetPath() []string {
	if x != nil {
		return x.Path
	}
	return nil
}

func (x *Listing) GetDirectories() []string {
	if x != nil {
		return x.Directories
	}
	return nil
}

func (x *Listing) GetFiles() []string {
	if x != nil {
		return x.Files
	}
	return nil
}

type CreateDir struct {
	Path string
	Name string
}

// TransferUnit is one chunk of a file in flight. Checksum covers exactly Content
// as produced by the sender, before any wire compression.
type TransferUnit struct {
	Owner      *User
	Path       string
	Name       string
	FullSize   int64
	Checksum   string
	Content    []byte
	IsStart    bool
	IsEnd      bool
	Part       int32
	Compressed bool
}
