package shared

const (
	ApiPrefix = "/storage"

	// Root is the logical name of a user's sandbox root.
	Root = "root"

	MaxChunkSize = 30_000_000
)

// Command kinds.
const (
	AUTH_REQUEST     = 0
	AUTH_OK          = 1
	AUTH_NO          = 2
	CONTENT_REQUEST  = 3
	CONTENT_RESPONSE = 4
	FILE_UPLOAD      = 5
	FILE_DOWNLOAD    = 6
	CREATE_DIR       = 7
	NEXT_PART        = 8
	UPLOAD_ERROR     = 9
	DOWNLOAD_ERROR   = 10
	ERROR            = 11
)

// Content actions carried by CONTENT_REQUEST.
const (
	OPEN     = 0
	DOWNLOAD = 1
	DELETE   = 2
	RENAME   = 3
)

// Forbidden lists the characters a file or directory name may not contain.
var Forbidden = []rune{'/', '\\', '*', '?', ':', '|', '>', '<', '"', '+', '%', '!', '\'', '@', '~'}

func GetTypeName(t int32) string {
	switch t {
	case AUTH_REQUEST:
		return "AUTH_REQUEST"
	case AUTH_OK:
		return "AUTH_OK"
	case AUTH_NO:
		return "AUTH_NO"
	case CONTENT_REQUEST:
		return "CONTENT_REQUEST"
	case CONTENT_RESPONSE:
		return "CONTENT_RESPONSE"
	case FILE_UPLOAD:
		return "FILE_UPLOAD"
	case FILE_DOWNLOAD:
		return "FILE_DOWNLOAD"
	case CREATE_DIR:
		return "CREATE_DIR"
	case NEXT_PART:
		return "NEXT_PART"
	case UPLOAD_ERROR:
		return "UPLOAD_ERROR"
	case DOWNLOAD_ERROR:
		return "DOWNLOAD_ERROR"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func GetActionName(a int32) string {
	switch a {
	case OPEN:
		return "OPEN"
	case DOWNLOAD:
		return "DOWNLOAD"
	case DELETE:
		return "DELETE"
	case RENAME:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}
