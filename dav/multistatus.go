package dav

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/davcore/entity"
)

type resourceType struct {
	Collection string `xml:"D:collection,omitempty"`
}

type propValues struct {
	DisplayName   string       `xml:"D:displayname"`
	LastModified  string       `xml:"D:getlastmodified"`
	ContentLength int64        `xml:"D:getcontentlength"`
	ResourceType  resourceType `xml:"D:resourcetype"`
}

type propStat struct {
	Prop   propValues `xml:"D:prop"`
	Status string     `xml:"D:status"`
}

type msResponse struct {
	Href     string   `xml:"D:href"`
	PropStat propStat `xml:"D:propstat"`
}

// Multistatus is the 207 response document for PROPFIND.
type Multistatus struct {
	XMLName   xml.Name      `xml:"D:multistatus"`
	XMLNS     string        `xml:"xmlns:D,attr"`
	Responses []*msResponse `xml:"D:response"`
}

const statusOK = "HTTP/1.1 200 OK"

func formatModTime(mtime int64) string {
	if mtime == 0 {
		mtime = time.Now().UnixMilli()
	}
	return time.UnixMilli(mtime).UTC().Format(http.TimeFormat)
}

// buildMultistatus renders one response element per node. The first
// entry of infos is the target itself, the rest are its children.
func buildMultistatus(baseHref string, infos []*entity.NodeInfo) *Multistatus {
	ms := &Multistatus{XMLNS: "DAV:"}
	base := strings.TrimSuffix(baseHref, "/")
	for i, info := range infos {
		href := base
		if i > 0 {
			href = base + "/" + url.PathEscape(info.Name)
		}
		if href == "" {
			href = "/"
		}
		if info.IsDir() && !strings.HasSuffix(href, "/") {
			href += "/"
		}
		prop := propValues{
			DisplayName:  info.Name,
			LastModified: formatModTime(info.Mtime),
		}
		if info.IsDir() {
			prop.ResourceType.Collection = " "
		} else {
			prop.ContentLength = info.Size
		}
		ms.Responses = append(ms.Responses, &msResponse{
			Href: href,
			PropStat: propStat{
				Prop:   prop,
				Status: statusOK,
			},
		})
	}
	return ms
}
