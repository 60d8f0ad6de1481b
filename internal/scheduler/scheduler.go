// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/leadpilot/leadpilot-backend/internal/approval"
	appErrors "github.com/leadpilot/leadpilot-backend/internal/errors"
	"github.com/leadpilot/leadpilot-backend/internal/model"
	"github.com/leadpilot/leadpilot-backend/internal/platform"
	"github.com/leadpilot/leadpilot-backend/internal/queue"
	"github.com/leadpilot/leadpilot-backend/internal/risk"
	"github.com/leadpilot/leadpilot-backend/internal/safety"
)

// sendLogTopic is where every step attempt's outcome is published.
const sendLogTopic = "send_log"

// Scheduler advances leads through campaign sequences. Every step runs the
// admission pipeline: safety guard, content validation, risk assessment,
// approval gate, and only then the platform send.
type Scheduler struct {
	guard     *safety.Guard
	validator *safety.Validator
	assessor  *risk.Assessor
	gate      *approval.Gate
	drafter   platform.Drafter
	sender    platform.SendClient
	queue     queue.Queue
	clock     Clock

	mu        sync.Mutex
	campaigns map[int]*campaignState
	waiting   map[string]*pendingSend
}

// pendingSend is a step parked behind an approval request.
type pendingSend struct {
	campaignID int
	leadID     int
	stepIdx    int
}

// campaignState has its own lock so unrelated campaigns never serialize.
type campaignState struct {
	mu          sync.Mutex
	campaign    model.Campaign
	leads       map[int]*leadState
	tasks       map[string]*scheduledTask
	metrics     model.CampaignMetrics
	pauseReason string
}

type leadState struct {
	lead          model.Lead
	nextStep      int
	excluded      bool
	excludeReason string
	failed        bool
	contacted     bool
	replied       bool
	done          bool
	// inReview marks a step parked behind a pending approval request.
	// Such leads are skipped on resume: the reviewer's resolution is the
	// only path allowed to move the step forward, otherwise a pause/resume
	// cycle would run the pipeline again and deliver the step twice.
	inReview bool
}

// scheduledTask is the ephemeral unit of future work; it dies on firing,
// cancellation, or campaign archival.
type scheduledTask struct {
	key        string
	campaignID int
	leadID     int
	stepIdx    int
	fireAt     time.Time
	timer      Timer
	cancelled  bool
}

// CampaignSnapshot is the read model handed to HTTP callers.
type CampaignSnapshot struct {
	Campaign    model.Campaign        `json:"campaign"`
	Metrics     model.CampaignMetrics `json:"metrics"`
	ReplyRate   float64               `json:"reply_rate"`
	Conversion  float64               `json:"conversion_rate"`
	PauseReason string                `json:"pause_reason,omitempty"`
	OpenTasks   int                   `json:"open_tasks"`
}

func NewScheduler(guard *safety.Guard, validator *safety.Validator, assessor *risk.Assessor, gate *approval.Gate, drafter platform.Drafter, sender platform.SendClient, q queue.Queue, clock Clock) *Scheduler {
	if clock == nil {
		clock = NewRealClock()
	}
	s := &Scheduler{
		guard:     guard,
		validator: validator,
		assessor:  assessor,
		gate:      gate,
		drafter:   drafter,
		sender:    sender,
		queue:     q,
		clock:     clock,
		campaigns: make(map[int]*campaignState),
		waiting:   make(map[string]*pendingSend),
	}
	gate.OnResolved(s.handleResolved)
	return s
}

// ====================== Campaign lifecycle ======================

func validateCampaign(c model.Campaign) error {
	if c.AccountID == "" {
		return appErrors.NewInvalidCampaign(c.ID, "missing sending account")
	}
	if len(c.Sequence.Steps) == 0 {
		return appErrors.NewInvalidCampaign(c.ID, "sequence has no steps")
	}
	if c.Settings.DailyLimit <= 0 {
		return appErrors.NewInvalidCampaign(c.ID, "daily limit must be positive")
	}
	for i, step := range c.Sequence.Steps {
		if step.StepNumber != i+1 {
			return appErrors.NewInvalidCampaign(c.ID, fmt.Sprintf("step %d out of order (expected %d)", step.StepNumber, i+1))
		}
		if !step.Channel.Valid() {
			return appErrors.NewInvalidCampaign(c.ID, fmt.Sprintf("step %d has unknown channel %q", step.StepNumber, step.Channel))
		}
		if step.DelayHours < 0 {
			return appErrors.NewInvalidCampaign(c.ID, fmt.Sprintf("step %d has negative delay", step.StepNumber))
		}
	}
	return nil
}

// StartCampaign activates a draft campaign and schedules the first step for
// every lead, or resumes a paused campaign from each lead's next step.
// Configuration errors surface here, before anything is scheduled.
func (s *Scheduler) StartCampaign(c model.Campaign, leads []model.Lead) error {
	s.mu.Lock()
	cs, exists := s.campaigns[c.ID]
	s.mu.Unlock()

	if exists {
		return s.resume(cs)
	}

	if err := validateCampaign(c); err != nil {
		return err
	}
	if c.Status != model.CampaignDraft && c.Status != model.CampaignPaused {
		return appErrors.NewInvalidTransition(c.ID, string(c.Status), string(model.CampaignActive))
	}

	cs = &campaignState{
		campaign: c,
		leads:    make(map[int]*leadState, len(leads)),
		tasks:    make(map[string]*scheduledTask),
		metrics:  model.CampaignMetrics{TotalLeads: len(leads)},
	}
	for _, lead := range leads {
		cs.leads[lead.ID] = &leadState{lead: lead}
	}

	// Re-check under the lock: two concurrent first starts must not both
	// register a state and double-schedule every lead.
	s.mu.Lock()
	if existing, ok := s.campaigns[c.ID]; ok {
		s.mu.Unlock()
		return s.resume(existing)
	}
	s.campaigns[c.ID] = cs
	s.mu.Unlock()

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.campaign.Status = model.CampaignActive
	cs.pauseReason = ""
	for _, ls := range cs.leads {
		s.scheduleStepLocked(cs, ls)
	}
	return nil
}

func (s *Scheduler) resume(cs *campaignState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch cs.campaign.Status {
	case model.CampaignActive:
		return nil
	case model.CampaignPaused:
	default:
		return appErrors.NewInvalidTransition(cs.campaign.ID, string(cs.campaign.Status), string(model.CampaignActive))
	}

	cs.campaign.Status = model.CampaignActive
	cs.pauseReason = ""
	for _, ls := range cs.leads {
		if ls.excluded || ls.failed || ls.done || ls.inReview {
			continue
		}
		s.scheduleStepLocked(cs, ls)
	}
	return nil
}

// PauseCampaign cancels every outstanding task for the campaign, or, when
// leadID is given, excludes just that lead's future steps. Pausing an
// already-paused campaign is a no-op.
func (s *Scheduler) PauseCampaign(campaignID int, leadID *int, reason string) error {
	cs := s.campaignState(campaignID)
	if cs == nil {
		return appErrors.NewCampaignNotFound(campaignID)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if leadID != nil {
		ls, ok := cs.leads[*leadID]
		if !ok {
			return fmt.Errorf("lead %d not in campaign %d", *leadID, campaignID)
		}
		ls.excluded = true
		ls.excludeReason = reason
		s.cancelLeadTasksLocked(cs, *leadID)
		return nil
	}

	switch cs.campaign.Status {
	case model.CampaignPaused:
		return nil
	case model.CampaignActive:
	default:
		return appErrors.NewInvalidTransition(campaignID, string(cs.campaign.Status), string(model.CampaignPaused))
	}

	s.pauseLocked(cs, reason)
	return nil
}

// pauseLocked flips the campaign to paused and kills all outstanding tasks.
// Caller holds cs.mu.
func (s *Scheduler) pauseLocked(cs *campaignState, reason string) {
	cs.campaign.Status = model.CampaignPaused
	cs.pauseReason = reason
	for _, task := range cs.tasks {
		task.cancelled = true
		if task.timer != nil {
			task.timer.Stop()
		}
	}
	cs.tasks = make(map[string]*scheduledTask)
	log.Printf("campaign %d paused: %s", cs.campaign.ID, reason)
}

func (s *Scheduler) cancelLeadTasksLocked(cs *campaignState, leadID int) {
	for key, task := range cs.tasks {
		if task.leadID != leadID {
			continue
		}
		task.cancelled = true
		if task.timer != nil {
			task.timer.Stop()
		}
		delete(cs.tasks, key)
	}
}

// ArchiveCampaign is terminal: tasks are cancelled and the campaign can
// never be restarted.
func (s *Scheduler) ArchiveCampaign(campaignID int) error {
	cs := s.campaignState(campaignID)
	if cs == nil {
		return appErrors.NewCampaignNotFound(campaignID)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch cs.campaign.Status {
	case model.CampaignArchived:
		return nil
	case model.CampaignActive, model.CampaignPaused, model.CampaignCompleted:
	default:
		return appErrors.NewInvalidTransition(campaignID, string(cs.campaign.Status), string(model.CampaignArchived))
	}

	for _, task := range cs.tasks {
		task.cancelled = true
		if task.timer != nil {
			task.timer.Stop()
		}
	}
	cs.tasks = make(map[string]*scheduledTask)
	cs.campaign.Status = model.CampaignArchived
	return nil
}

func (s *Scheduler) campaignState(id int) *campaignState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id]
}

// Snapshot returns the campaign's current status and metrics.
func (s *Scheduler) Snapshot(campaignID int) (CampaignSnapshot, error) {
	cs := s.campaignState(campaignID)
	if cs == nil {
		return CampaignSnapshot{}, appErrors.NewCampaignNotFound(campaignID)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	return CampaignSnapshot{
		Campaign:    cs.campaign,
		Metrics:     cs.metrics,
		ReplyRate:   cs.metrics.ReplyRate(),
		Conversion:  cs.metrics.ConversionRate(),
		PauseReason: cs.pauseReason,
		OpenTasks:   len(cs.tasks),
	}, nil
}

// ====================== Step scheduling ======================

// scheduleStepLocked registers the task for ls.nextStep. Caller holds cs.mu.
func (s *Scheduler) scheduleStepLocked(cs *campaignState, ls *leadState) {
	if ls.nextStep >= len(cs.campaign.Sequence.Steps) {
		return
	}
	step := cs.campaign.Sequence.Steps[ls.nextStep]

	delay := time.Duration(step.DelayHours * float64(time.Hour))
	if step.DelayHours > 0 && cs.campaign.Settings.PerActionDelaySeconds > 0 {
		// Humanized jitter so delayed steps never fire on an exact grid.
		delay += time.Duration(safety.RandomDelay(cs.campaign.Settings.PerActionDelaySeconds)) * time.Second
	}

	task := &scheduledTask{
		key:        fmt.Sprintf("%d:%d:%d", cs.campaign.ID, ls.lead.ID, step.StepNumber),
		campaignID: cs.campaign.ID,
		leadID:     ls.lead.ID,
		stepIdx:    ls.nextStep,
		fireAt:     s.clock.Now().Add(delay),
	}
	cs.tasks[task.key] = task
	task.timer = s.clock.AfterFunc(delay, func() { s.fireTask(task) })
}

// rescheduleLocked re-registers the same step after an admission denial.
func (s *Scheduler) rescheduleLocked(cs *campaignState, task *scheduledTask, wait time.Duration) {
	fresh := &scheduledTask{
		key:        task.key,
		campaignID: task.campaignID,
		leadID:     task.leadID,
		stepIdx:    task.stepIdx,
		fireAt:     s.clock.Now().Add(wait),
	}
	cs.tasks[fresh.key] = fresh
	fresh.timer = s.clock.AfterFunc(wait, func() { s.fireTask(fresh) })
}

// fireTask runs the admission pipeline for one due step. A task that has
// already begun is allowed to finish after a pause, but will not schedule
// a follow-up.
func (s *Scheduler) fireTask(task *scheduledTask) {
	cs := s.campaignState(task.campaignID)
	if cs == nil {
		return
	}

	cs.mu.Lock()
	delete(cs.tasks, task.key)
	if task.cancelled || cs.campaign.Status != model.CampaignActive {
		cs.mu.Unlock()
		return
	}
	ls, ok := cs.leads[task.leadID]
	if !ok || ls.excluded || ls.failed || ls.done {
		cs.mu.Unlock()
		return
	}
	lead := ls.lead
	firstContact := !ls.contacted
	campaign := cs.campaign
	step := campaign.Sequence.Steps[task.stepIdx]
	cs.mu.Unlock()

	// Health is re-checked on every due step, not just after validation
	// failures: warnings ingested out of band must stop the campaign too.
	if s.throttleIfCritical(cs, campaign.AccountID) {
		return
	}

	// Draft first: risk scoring and validation both inspect the text.
	body, subject, err := s.drafter.Draft(lead, step.Channel)
	if err != nil {
		s.failLead(cs, task.leadID, "draft failed: "+err.Error())
		s.publishRecord(campaign, lead, step, "", model.SendStatusFailed, "", err.Error())
		return
	}

	res := s.guard.CheckAction(campaign.AccountID, step.Channel, 1)
	if !res.Allowed {
		if res.SuggestedDelaySeconds > 0 {
			cs.mu.Lock()
			if cs.campaign.Status == model.CampaignActive {
				s.rescheduleLocked(cs, task, time.Duration(res.SuggestedDelaySeconds)*time.Second)
			}
			cs.mu.Unlock()
			return
		}
		s.failLead(cs, task.leadID, "admission denied: "+res.Reason)
		return
	}

	vr := s.validator.ValidateMessage(body, subject)
	if !vr.Valid {
		issues := strings.Join(vr.Issues, "; ")
		s.guard.AddWarning(campaign.AccountID, "content blocked: "+issues)
		s.failLead(cs, task.leadID, "content validation: "+issues)
		s.publishRecord(campaign, lead, step, body, model.SendStatusBlocked, "", issues)
		s.throttleIfCritical(cs, campaign.AccountID)
		return
	}

	assessment := s.assessor.Assess(lead, body, risk.Context{
		FirstContact: firstContact && lead.PriorThreads == 0,
		Channel:      step.Channel,
	})
	needsApproval := s.gate.Decide(campaign.ID, &assessment)
	if !campaign.Settings.AutoSend {
		needsApproval = true
	}

	if needsApproval {
		req := s.gate.RequestApproval(campaign.ID, lead.ID, campaign.AccountID, step.Channel, assessment, body, subject)
		cs.mu.Lock()
		ls.inReview = true
		cs.mu.Unlock()
		s.mu.Lock()
		s.waiting[req.ID] = &pendingSend{campaignID: campaign.ID, leadID: lead.ID, stepIdx: task.stepIdx}
		s.mu.Unlock()
		return
	}

	s.deliver(cs, task.leadID, task.stepIdx, step, body)
}

// deliver invokes the platform client exactly once and, on success,
// schedules the lead's next step.
func (s *Scheduler) deliver(cs *campaignState, leadID, stepIdx int, step model.SequenceStep, content string) {
	cs.mu.Lock()
	campaign := cs.campaign
	ls, ok := cs.leads[leadID]
	if !ok {
		cs.mu.Unlock()
		return
	}
	lead := ls.lead
	cs.mu.Unlock()

	result, err := s.sender.Send(campaign.AccountID, leadID, content, step.Channel)

	cs.mu.Lock()
	if err != nil {
		// Terminal for this step: no retry loop, retries amplify account
		// risk. Quota stays consumed.
		cs.metrics.Bounced++
		ls.failed = true
		ls.excludeReason = "send failed: " + err.Error()
		s.maybeCompleteLocked(cs)
		cs.mu.Unlock()
		s.publishRecord(campaign, lead, step, content, model.SendStatusFailed, "", err.Error())
		return
	}

	if !ls.contacted {
		ls.contacted = true
		cs.metrics.Contacted++
	}
	now := s.clock.Now()
	ls.lead.LastContactedAt = &now
	ls.nextStep = stepIdx + 1

	if ls.nextStep >= len(campaign.Sequence.Steps) {
		ls.done = true
		s.maybeCompleteLocked(cs)
	} else if cs.campaign.Status == model.CampaignActive && !ls.excluded {
		s.scheduleStepLocked(cs, ls)
	}
	cs.mu.Unlock()

	s.publishRecord(campaign, lead, step, content, model.SendStatusSent, result.DeliveryID, "")
}

// maybeCompleteLocked flips an active campaign to completed once no lead
// has work left. Caller holds cs.mu.
func (s *Scheduler) maybeCompleteLocked(cs *campaignState) {
	if cs.campaign.Status != model.CampaignActive {
		return
	}
	for _, ls := range cs.leads {
		if !ls.done && !ls.excluded && !ls.failed {
			return
		}
	}
	cs.campaign.Status = model.CampaignCompleted
}

func (s *Scheduler) failLead(cs *campaignState, leadID int, reason string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	ls, ok := cs.leads[leadID]
	if !ok {
		return
	}
	ls.failed = true
	ls.excludeReason = reason
	log.Printf("campaign %d lead %d step halted: %s", cs.campaign.ID, leadID, reason)
	s.maybeCompleteLocked(cs)
}

// throttleIfCritical pauses the campaign with a safety reason once the
// sending account's derived health turns critical. Monitoring can tell
// these pauses apart from operator ones by the reason prefix.
func (s *Scheduler) throttleIfCritical(cs *campaignState, accountID string) bool {
	if s.guard.GetAccountHealth(accountID).Status != safety.HealthCritical {
		return false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.campaign.Status == model.CampaignActive {
		s.pauseLocked(cs, "safety: account "+accountID+" health critical")
	}
	return true
}

// ====================== Approvals & replies ======================

// handleResolved resumes or kills a step parked behind an approval request.
func (s *Scheduler) handleResolved(req model.ApprovalRequest) {
	s.mu.Lock()
	ps, ok := s.waiting[req.ID]
	if ok {
		delete(s.waiting, req.ID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	cs := s.campaignState(ps.campaignID)
	if cs == nil {
		return
	}

	cs.mu.Lock()
	ls, okLead := cs.leads[ps.leadID]
	active := cs.campaign.Status == model.CampaignActive
	campaign := cs.campaign
	var lead model.Lead
	if okLead {
		ls.inReview = false
		lead = ls.lead
	}
	step := campaign.Sequence.Steps[ps.stepIdx]
	cs.mu.Unlock()
	if !okLead {
		return
	}

	if !req.Cleared() {
		// Rejection is terminal for the action; no follow-up step.
		s.failLead(cs, ps.leadID, "approval rejected by "+req.Reviewer)
		s.publishRecord(campaign, lead, step, req.Content, model.SendStatusRejected, "", req.ReviewNote)
		return
	}

	if !active {
		// Campaign was paused while the request sat in review; the
		// approved content stays in history but nothing goes out.
		return
	}

	s.deliver(cs, ps.leadID, ps.stepIdx, step, req.FinalContent())
}

// RecordReply folds a classified inbound reply into campaign metrics and
// drops the lead from further steps when the intent asks for it.
func (s *Scheduler) RecordReply(campaignID, leadID int, cls platform.Classification) error {
	cs := s.campaignState(campaignID)
	if cs == nil {
		return appErrors.NewCampaignNotFound(campaignID)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	ls, ok := cs.leads[leadID]
	if !ok {
		return fmt.Errorf("lead %d not in campaign %d", leadID, campaignID)
	}

	if !ls.replied {
		ls.replied = true
		cs.metrics.Replied++
	}
	switch cls.Sentiment {
	case platform.SentimentPositive:
		cs.metrics.Positive++
	case platform.SentimentNegative:
		cs.metrics.Negative++
	default:
		cs.metrics.Neutral++
	}

	if cls.Intent == platform.IntentUnsubscribe || cls.Intent == platform.IntentNotInterested {
		ls.excluded = true
		ls.excludeReason = "reply: " + cls.Intent
		s.cancelLeadTasksLocked(cs, leadID)
		s.maybeCompleteLocked(cs)
	}
	return nil
}

// ====================== Audit ======================

func (s *Scheduler) publishRecord(campaign model.Campaign, lead model.Lead, step model.SequenceStep, content, status, deliveryID, lastError string) {
	if s.queue == nil {
		return
	}
	rec := model.SendRecord{
		CampaignID: campaign.ID,
		LeadID:     lead.ID,
		StepNumber: step.StepNumber,
		Channel:    step.Channel,
		AccountID:  campaign.AccountID,
		Content:    content,
		Status:     status,
		DeliveryID: deliveryID,
		LastError:  lastError,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.queue.Publish(sendLogTopic, rec); err != nil {
		log.Println("⚠️ failed to publish send record:", err)
	}
}
