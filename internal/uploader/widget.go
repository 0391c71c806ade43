package uploader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"quest-go/internal/apitypes"
)

var (
	ErrClosed       = errors.New("uploader: widget closed")
	ErrMissingQuest = errors.New("uploader: quest id is required")
	ErrMissingAPI   = errors.New("uploader: attachment api is required")
)

// ProgressFunc receives byte-level upload progress for one request.
type ProgressFunc func(loaded, total int64)

// AttachmentAPI 是组件依赖的远端接口，由 curriculum.Client 实现。
type AttachmentAPI interface {
	Upload(ctx context.Context, questID uint, f File, onProgress ProgressFunc) (*apitypes.Attachment, error)
	Delete(ctx context.Context, attachmentID uint) error
}

// Notifier 是瞬时提示 (toast) 的展示面。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Props 由父级数据持有者提供。
//
// OnChange 在组件希望父级采用一个新的附件序列时调用 (追加或删除)。
// 它在组件的串行回合中执行，可以同步调用 SetAttachments，
// 但不能同步调用 Upload 或 Remove。
type Props struct {
	QuestID     uint
	Attachments []apitypes.Attachment
	OnChange    func([]apitypes.Attachment)
	// OnProgress 可选，每次进度集合变化后收到最新快照。
	OnProgress func([]ProgressEntry)
}

// DropEvent is a drop of one or more files onto the widget.
type DropEvent struct {
	Files            []File
	defaultPrevented bool
}

// PreventDefault stops the host from opening the dropped files itself.
func (e *DropEvent) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *DropEvent) DefaultPrevented() bool { return e.defaultPrevented }

// PickerInput 是文件选择框的状态。每次选择后 Value 会被清空，
// 这样同一个文件可以被连续选择两次。
type PickerInput struct {
	Files []File
	Value string
}

// Widget 负责附件上传组件的全部界面状态和编排逻辑：
// 校验 → 上传 → 更新列表，删除 → 更新列表。
type Widget struct {
	api        AttachmentAPI
	notifier   Notifier
	policy     Policy
	questID    uint
	onChange   func([]apitypes.Attachment)
	onProgress func([]ProgressEntry)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// turn 串行化完成回调 (读取序列 → OnChange → 提示)。
	turn sync.Mutex
	// emitMu 保证 OnProgress 收到的快照不会倒序。
	emitMu sync.Mutex

	mu          sync.Mutex
	attachments []apitypes.Attachment
	progress    *progressSet
	inFlight    int
	dragOver    bool
	closed      bool
}

// New 创建组件。notifier 为 nil 时提示只写入日志。
func New(props Props, api AttachmentAPI, notifier Notifier, policy Policy) (*Widget, error) {
	if props.QuestID == 0 {
		return nil, ErrMissingQuest
	}
	if api == nil {
		return nil, ErrMissingAPI
	}
	if notifier == nil {
		notifier = logNotifier{}
	}
	onChange := props.OnChange
	if onChange == nil {
		onChange = func([]apitypes.Attachment) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Widget{
		api:         api,
		notifier:    notifier,
		policy:      policy,
		questID:     props.QuestID,
		onChange:    onChange,
		onProgress:  props.OnProgress,
		ctx:         ctx,
		cancel:      cancel,
		attachments: slices.Clone(props.Attachments),
		progress:    newProgressSet(),
	}, nil
}

// QuestID returns the quest the widget uploads to.
func (w *Widget) QuestID() uint { return w.questID }

// Attachments 返回父级最后一次提供的序列的副本。
func (w *Widget) Attachments() []apitypes.Attachment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.attachments)
}

// SetAttachments 由父级调用，整体替换组件显示的序列。
func (w *Widget) SetAttachments(list []apitypes.Attachment) {
	w.mu.Lock()
	w.attachments = slices.Clone(list)
	w.mu.Unlock()
}

// Progress returns the in-flight uploads in start order.
func (w *Widget) Progress() []ProgressEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.snapshot()
}

// Uploading reports whether any upload request is still in flight.
func (w *Widget) Uploading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight > 0
}

// DragOver reports whether the drop zone is highlighted.
func (w *Widget) DragOver() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dragOver
}

// Validate 校验文件，失败时弹出错误提示并返回 false。
func (w *Widget) Validate(f File) bool {
	return w.validate(f) == nil
}

func (w *Widget) validate(f File) error {
	if err := w.policy.Check(f); err != nil {
		w.notifier.Error(err.Error())
		return err
	}
	return nil
}

// Upload 校验并上传单个文件，阻塞直到请求结束。
// 结果同时通过提示和返回值告知调用方。
// 关闭后调用直接返回 ErrClosed，不做校验也不弹出提示。
func (w *Widget) Upload(f File) (*apitypes.Attachment, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	// Close 会等待这里登记的每一次上传。
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	if err := w.validate(f); err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.inFlight++
	id := w.progress.start(f.Name)
	w.mu.Unlock()
	w.emitProgress()

	defer func() {
		w.mu.Lock()
		w.inFlight--
		w.mu.Unlock()
	}()

	att, err := w.api.Upload(w.ctx, w.questID, f, func(loaded, total int64) {
		w.tick(id, loaded, total)
	})
	if err == nil && att == nil {
		err = fmt.Errorf("上传 %s 的响应中缺少附件记录", f.Name)
	}
	if err != nil {
		w.finishProgress(id)
		if w.tornDown(err) {
			log.Printf("组件已关闭，取消上传 %s", f.Name)
			return nil, err
		}
		w.turn.Lock()
		w.notifier.Error(uploadFailureMessage(f.Name, err))
		w.turn.Unlock()
		return nil, err
	}

	w.turn.Lock()
	next := append(w.Attachments(), *att)
	w.onChange(next)
	w.notifier.Success(fmt.Sprintf("%s uploaded", f.Name))
	w.turn.Unlock()
	w.finishProgress(id)
	return att, nil
}

// UploadFiles 为每个文件启动一个独立的上传，不排队也不限制并发。
// 各个文件的成功或失败互不影响。使用 Wait 等待全部结束。
func (w *Widget) UploadFiles(files []File) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	for _, f := range files {
		w.wg.Add(1)
		go func(f File) {
			defer w.wg.Done()
			_, _ = w.Upload(f)
		}(f)
	}
}

// Wait blocks until every upload started by UploadFiles has resolved.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// HandleDragOver highlights the drop zone.
func (w *Widget) HandleDragOver() {
	w.setDragOver(true)
}

// HandleDragLeave clears the highlight.
func (w *Widget) HandleDragLeave() {
	w.setDragOver(false)
}

// HandleDrop 清除高亮，阻止宿主的默认打开行为，然后上传拖入的文件。
func (w *Widget) HandleDrop(ev *DropEvent) {
	ev.PreventDefault()
	w.setDragOver(false)
	w.UploadFiles(ev.Files)
}

// HandleSelect 上传文件选择框中选中的文件，并把选择框重置为空。
func (w *Widget) HandleSelect(in *PickerInput) {
	files := in.Files
	in.Files = nil
	in.Value = ""
	w.UploadFiles(files)
}

// Remove 删除一个附件。只有服务端确认删除后才会更新序列。
func (w *Widget) Remove(attachmentID uint) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := w.api.Delete(w.ctx, attachmentID)

	w.turn.Lock()
	defer w.turn.Unlock()
	if err != nil {
		if w.tornDown(err) {
			return err
		}
		w.notifier.Error("Failed to remove attachment")
		return err
	}

	current := w.Attachments()
	next := slices.DeleteFunc(current, func(a apitypes.Attachment) bool {
		return a.ID == attachmentID
	})
	w.onChange(next)
	w.notifier.Success("Attachment removed")
	return nil
}

// Close 取消所有进行中的请求，并等待所有上传 (包括直接调用 Upload 的) 结束。
// 不能在 OnChange 或 Notifier 回调中调用。
// 因关闭而取消的上传不会弹出提示。
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}

func (w *Widget) setDragOver(v bool) {
	w.mu.Lock()
	w.dragOver = v
	w.mu.Unlock()
}

func (w *Widget) tick(id string, loaded, total int64) {
	pct, ok := percentOf(loaded, total)
	if !ok {
		return
	}
	w.mu.Lock()
	_, changed := w.progress.update(id, pct)
	w.mu.Unlock()
	if changed {
		w.emitProgress()
	}
}

func (w *Widget) finishProgress(id string) {
	w.mu.Lock()
	w.progress.remove(id)
	w.mu.Unlock()
	w.emitProgress()
}

func (w *Widget) emitProgress() {
	if w.onProgress == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	w.onProgress(w.Progress())
}

func (w *Widget) tornDown(err error) bool {
	return w.ctx.Err() != nil && errors.Is(err, context.Canceled)
}

func uploadFailureMessage(fileName string, err error) string {
	var apiErr *apitypes.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("Failed to upload %s", fileName)
}

type logNotifier struct{}

func (logNotifier) Success(message string) { log.Printf("[success] %s", message) }
func (logNotifier) Error(message string)   { log.Printf("[error] %s", message) }
