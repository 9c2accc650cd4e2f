package terabox

import "encoding/json"

// listResponse is the body of GET /share/list
type listResponse struct {
	Errno int        `json:"errno"`
	List  []listItem `json:"list"`
}

type listItem struct {
	ServerFilename string      `json:"server_filename"`
	Size           json.Number `json:"size"`
	Dlink          string      `json:"dlink"`
	IsDir          json.Number `json:"isdir"`
	Thumbs         *thumbs     `json:"thumbs"`
}

type thumbs struct {
	URL1 string `json:"url1"`
	URL2 string `json:"url2"`
	URL3 string `json:"url3"`
}

// size returns the item size, 0 when missing or malformed
func (i listItem) size() int64 {
	n, err := i.Size.Int64()
	if err != nil || n < 0 {
		return 0
	}
	return n
}
