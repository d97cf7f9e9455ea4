package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sheets/internal/calc"
	"sheets/internal/grid"
	"sheets/internal/sheet"
	"sheets/internal/storage"
)

const (
	MessageSaved    = "Spreadsheet saved successfully!"
	MessageNotFound = "Spreadsheet not found!"
)

// Controller is the set of actions mounted by SetupRouter.
type Controller interface {
	SaveAction(c *gin.Context)
	LoadAction(c *gin.Context)
	EvaluateAction(c *gin.Context)
	SetCellAction(c *gin.Context)
	ExportCSVAction(c *gin.Context)
}

type ApiController struct {
	Store storage.Store
	NewID func() string
	Log   *slog.Logger

	// sheet id -> *sync.Mutex, held across load, edit and save
	locks sync.Map
}

type SheetEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
}

type CellEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
	CellId  string `uri:"cell_id" binding:"required"`
}

type SaveRequest struct {
	ID   string        `json:"id"`
	Data grid.Snapshot `json:"data"`
}

type EvaluateRequest struct {
	Formula string        `json:"formula" binding:"required"`
	Data    grid.Snapshot `json:"data"`
}

type SetCellRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

func NewApiController(store storage.Store, log *slog.Logger) *ApiController {
	if log == nil {
		log = slog.Default()
	}
	return &ApiController{
		Store: store,
		NewID: uuid.NewString,
		Log:   log,
	}
}

// lockSheet serialises writes to one sheet and returns the unlock function.
func (api *ApiController) lockSheet(id string) func() {
	mu, _ := api.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (api *ApiController) SaveAction(c *gin.Context) {
	request := SaveRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if request.ID == "" {
		request.ID = api.NewID()
	}
	if request.Data == nil {
		request.Data = grid.Snapshot{}
	}

	defer api.lockSheet(request.ID)()
	if err := api.Store.Save(c.Request.Context(), request.ID, request.Data); err != nil {
		api.Log.Error("save sheet", "sheet", request.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MessageSaved, "id": request.ID})
}

func (api *ApiController) LoadAction(c *gin.Context) {
	params := SheetEndpointParams{}
	err := c.ShouldBindUri(&params)

	var data grid.Snapshot
	if err == nil {
		data, err = api.Store.Load(c.Request.Context(), params.SheetId)
	}

	if errors.Is(err, storage.ErrSheetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": MessageNotFound})
	} else if err != nil {
		api.Log.Error("load sheet", "sheet", params.SheetId, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	} else {
		c.JSON(http.StatusOK, gin.H{"data": data})
	}
}

func (api *ApiController) EvaluateAction(c *gin.Context) {
	request := EvaluateRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"value": calc.Evaluate(request.Formula, request.Data)})
}

// SetCellAction edits one cell of a stored sheet (starting a new sheet when
// the id is unknown), recomputes every formula and saves the result.
func (api *ApiController) SetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SetCellRequest{}

	err := c.ShouldBindUri(&params)
	if err == nil {
		err = c.ShouldBindJSON(&request)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	addr, err := grid.ParseAddress(strings.ToUpper(params.CellId))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	defer api.lockSheet(params.SheetId)()

	ctx := c.Request.Context()
	s, err := sheet.Open(ctx, params.SheetId, api.Store)
	if errors.Is(err, storage.ErrSheetNotFound) {
		s, err = sheet.New(params.SheetId, api.Store), nil
	}
	if err != nil {
		api.Log.Error("open sheet", "sheet", params.SheetId, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	s.SetLogger(api.Log)

	changed := s.Set(addr, sheet.ValidateCellData(request.Value, request.Type))
	if err = s.Save(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if changed == nil {
		changed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": s.Snapshot(), "changed": changed})
}

func (api *ApiController) ExportCSVAction(c *gin.Context) {
	params := SheetEndpointParams{}
	err := c.ShouldBindUri(&params)

	var data grid.Snapshot
	if err == nil {
		data, err = api.Store.Load(c.Request.Context(), params.SheetId)
	}

	var buf bytes.Buffer
	if err == nil {
		err = storage.ExportCSV(&buf, data)
	}

	if errors.Is(err, storage.ErrSheetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": MessageNotFound})
	} else if err != nil {
		api.Log.Error("export sheet", "sheet", params.SheetId, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	} else {
		c.Header("Content-Disposition", `attachment; filename="`+params.SheetId+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}
