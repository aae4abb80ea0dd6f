package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const totalCountHeader = "X-Total-Count"

type alertAction string

const (
	alertCreated alertAction = "created"
	alertUpdated alertAction = "updated"
	alertDeleted alertAction = "deleted"
)

// setAlert writes the X-<app>-alert and X-<app>-params headers a client
// shows as a notification after a write.
func setAlert(c *gin.Context, app string, action alertAction, entity string, id int64) {
	var msg string
	if action == alertCreated {
		msg = fmt.Sprintf("A new %s is created with identifier %d", entity, id)
	} else {
		msg = fmt.Sprintf("A %s is %s with identifier %d", entity, action, id)
	}
	c.Header("X-"+app+"-alert", msg)
	c.Header("X-"+app+"-params", strconv.FormatInt(id, 10))
}

// setFailureAlert writes the X-<app>-error header of a rejected request.
func setFailureAlert(c *gin.Context, app, entity, key string) {
	c.Header("X-"+app+"-error", "error."+key)
	c.Header("X-"+app+"-params", entity)
}

// setPaginationHeaders writes X-Total-Count and an RFC 5988 Link header
// with next, prev, last and first relations.
func setPaginationHeaders(c *gin.Context, page, size int, total int64) {
	c.Header(totalCountHeader, strconv.FormatInt(total, 10))
	if size <= 0 {
		return
	}

	pages := int((total + int64(size) - 1) / int64(size))
	last := 0
	if pages > 0 {
		last = pages - 1
	}

	var links []string
	if page < last {
		links = append(links, pageLink(c.Request, page+1, size, "next"))
	}
	if page > 0 {
		links = append(links, pageLink(c.Request, page-1, size, "prev"))
	}
	links = append(links,
		pageLink(c.Request, last, size, "last"),
		pageLink(c.Request, 0, size, "first"),
	)
	c.Header("Link", strings.Join(links, ","))
}

func pageLink(r *http.Request, page, size int, rel string) string {
	u := url.URL{Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	q.Del("cacheBuster")
	u.RawQuery = q.Encode()
	return fmt.Sprintf("<%s>; rel=%q", u.String(), rel)
}
