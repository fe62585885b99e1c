package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi"
	"github.com/xxxsen/common/webapi/auth"
	"github.com/xxxsen/common/webapi/middleware"
	"github.com/xxxsen/davcore/dav"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Server struct {
	c          *config
	dispatcher *dav.Dispatcher
	engine     webapi.IWebEngine
}

func New(bind string, opts ...Option) (*Server, error) {
	c := applyOpts(opts...)
	if c.tree == nil {
		return nil, fmt.Errorf("no tree configured")
	}
	davOpts := []dav.Option{dav.WithPrefix(c.prefix)}
	if c.patchEnable {
		davOpts = append(davOpts, dav.WithExtension(dav.NewPartialUpdateHandler(c.tree, c.prefix)))
	}
	svr := &Server{
		c:          c,
		dispatcher: dav.NewDispatcher(c.tree, davOpts...),
	}
	var err error
	svr.engine, err = webapi.NewEngine("/", bind, webapi.WithAuth(auth.MapUserMatch(c.userMap)), webapi.WithRegister(svr.initAPI))
	if err != nil {
		return nil, err
	}
	return svr, nil
}

func (s *Server) initAPI(router *gin.RouterGroup) {
	var handlers []gin.HandlerFunc
	if len(s.c.userMap) > 0 {
		handlers = append(handlers, middleware.MustAuthMiddleware())
	}
	davRouter := router.Group(s.c.prefix, handlers...)
	s.RegisterRoutes(davRouter)
}

// RegisterRoutes attaches one wildcard route per dispatchable method.
// It is exported so tests can mount the routes on their own engine.
func (s *Server) RegisterRoutes(router *gin.RouterGroup) {
	for _, method := range s.dispatcher.AllowedMethods() {
		router.Handle(method, "/*path", s.handle)
	}
}

func (s *Server) handle(c *gin.Context) {
	req, err := s.buildDavRequest(c)
	if err != nil {
		c.String(http.StatusBadRequest, "decode request failed, err:%v", err)
		return
	}
	rsp := s.dispatcher.Dispatch(c.Request.Context(), req)
	for key, vs := range rsp.Header {
		for _, v := range vs {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Status(rsp.Status)
	if len(rsp.Body) > 0 {
		_, _ = c.Writer.Write(rsp.Body)
	}
}

func (s *Server) buildDavRequest(c *gin.Context) (*dav.Request, error) {
	req := &dav.Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.EscapedPath(),
		Header: c.Request.Header,
	}
	ct := c.Request.Header.Get("Content-Type")
	if c.Request.Method == http.MethodPost && strings.HasPrefix(ct, "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fmt.Errorf("parse multipart form failed, err:%w", err)
		}
		req.Form = form.Value
		//form.File is a map, iterate fields in sorted order so the
		//"first part" seen by handlers is stable
		fields := make([]string, 0, len(form.File))
		for field := range form.File {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			for _, fh := range form.File[field] {
				data, err := readFilePart(fh)
				if err != nil {
					return nil, err
				}
				req.Parts = append(req.Parts, dav.FilePart{Name: fh.Filename, Data: data})
			}
		}
		return req, nil
	}
	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("read body failed, err:%w", err)
		}
		req.Body = body
	}
	return req, nil
}

func readFilePart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file failed, err:%w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read form file failed, err:%w", err)
	}
	return data, nil
}

func (s *Server) Run() error {
	return s.engine.Run()
}
