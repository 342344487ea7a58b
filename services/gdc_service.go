// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/gdc"
	"github.com/kbase/gdc/journal"
	"github.com/kbase/gdc/manifest"
	"github.com/kbase/gdc/query"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the Service interface, exposing GDC file searches and
// manifests over HTTP.
type gdcService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
	// GDC API client
	Client *gdc.Client
}

// translates an error into an HTTP error with an appropriate status code
func httpError(err error) error {
	var invalidProject *gdc.InvalidProjectError
	var invalidParameter *gdc.InvalidParameterError
	var unavailable *gdc.UnavailableError
	var requestErr *gdc.RequestError
	var notOpen *journal.NotOpenError
	var notFound *journal.RecordNotFoundError
	switch {
	case errors.As(err, &invalidProject), errors.As(err, &invalidParameter):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &unavailable), errors.As(err, &notOpen):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.As(err, &notFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &requestErr):
		if requestErr.Status == http.StatusNotFound {
			return huma.Error404NotFound(err.Error())
		}
		return huma.Error502BadGateway(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *gdcService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
			GdcURL:        service.Client.BaseURL,
		},
	}, nil
}

type StatusOutput struct {
	Body gdc.Status `doc:"the status reported by the GDC API"`
}

// handler method for querying the status of the GDC API
func (service *gdcService) getStatus(ctx context.Context,
	input *struct{}) (*StatusOutput, error) {

	slog.Info("Querying GDC status...")
	status, err := service.Client.Status()
	if err != nil {
		return nil, httpError(err)
	}
	return &StatusOutput{Body: status}, nil
}

type ProjectsOutput struct {
	Body ProjectsResponse `doc:"a list of GDC projects"`
}

// handler method for listing GDC projects
func (service *gdcService) getProjects(ctx context.Context,
	input *struct{}) (*ProjectsOutput, error) {

	slog.Info("Querying GDC projects...")
	projects, err := service.Client.Projects()
	if err != nil {
		return nil, httpError(err)
	}
	return &ProjectsOutput{
		Body: ProjectsResponse{Projects: projects},
	}, nil
}

type CategoriesOutput struct {
	Body CategoriesResponse `doc:"the data categories available for a project"`
}

// handler method for a project's data category summary
func (service *gdcService) getCategories(ctx context.Context,
	input *struct {
		Id     string `path:"id" example:"TCGA-BRCA" doc:"a GDC project ID"`
		Legacy bool   `query:"legacy" doc:"consult the legacy namespace"`
	}) (*CategoriesOutput, error) {

	slog.Info(fmt.Sprintf("Querying data categories for %s...", input.Id))
	summary, err := service.Client.CategorySummary(input.Id, input.Legacy)
	if err != nil {
		return nil, httpError(err)
	}
	return &CategoriesOutput{
		Body: CategoriesResponse{
			Project:    input.Id,
			Legacy:     input.Legacy,
			Categories: summary,
		},
	}, nil
}

// builds and runs the query described by the given request
func (service *gdcService) runQuery(request FileSearchRequest) (query.Result, error) {
	q, err := query.New(service.Client, request.Params)
	if err != nil {
		return query.Result{}, err
	}
	if request.All {
		q.MaxResults = 0
	} else if request.MaxResults > 0 {
		q.MaxResults = request.MaxResults
	}
	return q.Run()
}

type FileSearchOutput struct {
	Body FileSearchResponse `doc:"the results of a file search"`
}

// handler method for searching for files
func (service *gdcService) searchFiles(ctx context.Context,
	input *struct {
		Body FileSearchRequest `doc:"the body of a POST request for a file search"`
	}) (*FileSearchOutput, error) {

	slog.Info(fmt.Sprintf("Searching %v for %s files...", input.Body.Projects, input.Body.DataCategory))
	result, err := service.runQuery(input.Body)
	if err != nil {
		return nil, httpError(err)
	}
	output := &FileSearchOutput{
		Body: FileSearchResponse{
			Projects:     result.Projects,
			DataCategory: result.DataCategory,
			Count:        result.Len(),
			Rows:         result.Rows,
		},
	}
	if input.Body.Select != "" {
		output.Body.Selected, err = result.Select(input.Body.Select)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
	}
	return output, nil
}

type ManifestOutput struct {
	Body   ManifestResponse `doc:"the manifest written for a file search"`
	Status int
}

// handler method for writing a manifest for the results of a file search
func (service *gdcService) createManifest(ctx context.Context,
	input *struct {
		Body FileSearchRequest `doc:"the body of a POST request for a manifest"`
	}) (*ManifestOutput, error) {

	result, err := service.runQuery(input.Body)
	if err != nil {
		return nil, httpError(err)
	}
	project := result.Projects[0]
	path, err := manifest.Write(result, project, config.Service.ManifestDirectory)
	if err != nil {
		return nil, httpError(err)
	}
	entries, err := manifest.Read(path)
	if err != nil {
		return nil, httpError(err)
	}
	output := &ManifestOutput{
		Body: ManifestResponse{
			Manifest: path,
			Entries:  entries,
		},
		Status: http.StatusCreated,
	}
	if result.Len() > 0 {
		output.Body.Package, err = manifest.WritePackage(result, project,
			config.Service.ManifestDirectory)
		if err != nil {
			return nil, httpError(err)
		}
	}
	slog.Info(fmt.Sprintf("Wrote manifest %s (%d files)", path, len(entries)))
	return output, nil
}

type DownloadsOutput struct {
	Body DownloadsResponse `doc:"download records"`
}

// handler method for listing journaled downloads
func (service *gdcService) getDownloads(ctx context.Context,
	input *struct {
		Start string `query:"start" example:"2026-01-01T00:00:00Z" doc:"beginning of the time range (RFC 3339, default: the beginning of time)"`
		Stop  string `query:"stop" example:"2026-12-31T23:59:59Z" doc:"end of the time range (RFC 3339, default: now)"`
	}) (*DownloadsOutput, error) {

	var start time.Time
	stop := time.Now()
	var err error
	if input.Start != "" {
		start, err = time.Parse(time.RFC3339, input.Start)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("Invalid start time: %s", input.Start))
		}
	}
	if input.Stop != "" {
		stop, err = time.Parse(time.RFC3339, input.Stop)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("Invalid stop time: %s", input.Stop))
		}
	}
	records, err := journal.Records(start, stop)
	if err != nil {
		return nil, httpError(err)
	}
	return &DownloadsOutput{
		Body: DownloadsResponse{
			Start:     start,
			Stop:      stop,
			Downloads: records,
		},
	}, nil
}

type DownloadOutput struct {
	Body DownloadResponse `doc:"a download record"`
}

// handler method for fetching a single journaled download
func (service *gdcService) getDownload(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the requested download"`
	}) (*DownloadOutput, error) {

	record, err := journal.DownloadRecord(input.Id)
	if err != nil {
		return nil, httpError(err)
	}
	return &DownloadOutput{
		Body: DownloadResponse{Id: input.Id, Record: record},
	}, nil
}

// returns the uptime for the service in seconds
func (service *gdcService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a GDC search service that uses the given client
func NewGdcService(client *gdc.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("No GDC client was given.")
	}

	service := new(gdcService)
	service.Name = "GDC"
	service.Version = version
	service.Port = -1
	service.Client = client
	service.StartTime = time.Now()

	// set up routing
	service.Router = mux.NewRouter()
	service.API = humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(service.API, "/", service.getRoot)

	// API v1
	huma.Get(service.API, "/api/v1/status", service.getStatus)
	huma.Get(service.API, "/api/v1/projects", service.getProjects)
	huma.Get(service.API, "/api/v1/projects/{id}/categories", service.getCategories)
	huma.Post(service.API, "/api/v1/files", service.searchFiles)
	huma.Post(service.API, "/api/v1/manifests", service.createManifest)
	huma.Get(service.API, "/api/v1/downloads", service.getDownloads)
	huma.Get(service.API, "/api/v1/downloads/{id}", service.getDownload)

	return service, nil
}

// starts the GDC search service
func (service *gdcService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// open the download journal
	err = manifest.EnsureDir(config.Service.DataDirectory)
	if err != nil {
		return err
	}
	err = journal.Init()
	if err != nil {
		return err
	}

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *gdcService) Shutdown(ctx context.Context) error {
	var err error
	if service.Server != nil {
		err = service.Server.Shutdown(ctx)
	}
	if jerr := journal.Finalize(); err == nil {
		err = jerr
	}
	return err
}

// closes down the service abruptly, freeing all resources
func (service *gdcService) Close() {
	if service.Server != nil {
		service.Server.Close()
	}
	journal.Finalize()
}
