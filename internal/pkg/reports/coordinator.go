package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/blobstore"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Reakage/internal/pkg/observable"
)

// Coordinator owns the submission and list state of one session.
type Coordinator struct {
	svc        *Service
	submission *observable.Cell[SubmissionState]
	list       *observable.Cell[ListState]
}

func (s *Service) NewCoordinator() *Coordinator {
	return &Coordinator{
		svc:        s,
		submission: observable.New(SubmissionState{}),
		list:       observable.New(ListState{Loading: true}),
	}
}

func (c *Coordinator) Submission() SubmissionState {
	return c.submission.Get()
}

func (c *Coordinator) SubscribeSubmission(ctx context.Context) <-chan SubmissionState {
	return c.submission.Subscribe(ctx)
}

func (c *Coordinator) List() ListState {
	return c.list.Get()
}

func (c *Coordinator) SubscribeList(ctx context.Context) <-chan ListState {
	return c.list.Subscribe(ctx)
}

// ResetSubmission returns the submission state to idle.
func (c *Coordinator) ResetSubmission() {
	c.submission.Set(SubmissionState{})
}

func (c *Coordinator) fail(err error) error {
	c.submission.Set(SubmissionState{Error: err.Error()})
	return err
}

// Submit validates the input, uploads the optional photo, allocates a key
// and writes the report for owner. The returned error carries the same
// message as the resulting SubmissionState.
func (c *Coordinator) Submit(ctx context.Context, owner *identity.Identity, in SubmitInput) (*models.Report, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return nil, c.fail(err)
	}
	if owner == nil {
		return nil, c.fail(ErrNotAuthenticated)
	}

	c.submission.Set(SubmissionState{Loading: true})

	report := &models.Report{
		UserID:        owner.ID,
		ReporterEmail: owner.Email,
		Location:      in.Location,
		Description:   in.Description,
		Severity:      in.Severity,
		Status:        models.ReportStatusSubmitted,
	}
	if report.ReporterEmail == "" {
		report.ReporterEmail = "N/A"
	}

	if in.Photo != nil {
		if err := c.svc.attachPhoto(ctx, owner.ID, in.Photo, report); err != nil {
			return nil, c.fail(fmt.Errorf("%w: %w", ErrSubmission, err))
		}
	}

	keyCtx, cancel := context.WithTimeout(ctx, c.svc.storeTimeout)
	key, err := c.svc.store.NewKey(keyCtx)
	cancel()
	if err != nil || key == "" {
		log.Errorf("[Reports] Key allocation failed for user %d: %v", owner.ID, err)
		return nil, c.fail(ErrKeyAllocation)
	}
	report.ID = key
	report.Timestamp = c.svc.now().UnixMilli()

	setCtx, cancel := context.WithTimeout(ctx, c.svc.storeTimeout)
	err = c.svc.store.Set(setCtx, report)
	cancel()
	if err != nil {
		if report.PhotoKey != "" {
			log.Warnf("[Reports] Photo %s is orphaned after failed write of report %s", report.PhotoKey, key)
		}
		return nil, c.fail(fmt.Errorf("%w: %w", ErrSubmission, err))
	}

	// the report is stored, a lost notification only delays other views
	if err := c.svc.feed.Publish(ctx, owner.ID); err != nil {
		log.Warnf("[Reports] Change notification for user %d failed: %v", owner.ID, err)
	}

	log.Infof("[Reports] User %d submitted report %s", owner.ID, key)
	c.submission.Set(SubmissionState{Success: true})
	return report, nil
}

// attachPhoto processes and uploads the photo and its thumbnail, then
// records their URLs and EXIF data on report.
func (s *Service) attachPhoto(ctx context.Context, userID uint, upload *PhotoUpload, report *models.Report) error {
	photo, err := imageprocessor.Process(upload.Data, upload.Filename, s.maxPhotoBytes)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	photoKey, thumbKey := blobstore.PhotoKeys(userID)
	if err := s.blobs.Put(ctx, photoKey, bytes.NewReader(photo.JPEG), int64(len(photo.JPEG)), "image/jpeg"); err != nil {
		return err
	}
	url, err := s.blobs.URL(ctx, photoKey)
	if err != nil {
		return err
	}
	report.PhotoKey = photoKey
	report.PhotoURL = &url

	if len(photo.Thumbnail) > 0 {
		if err := s.blobs.Put(ctx, thumbKey, bytes.NewReader(photo.Thumbnail), int64(len(photo.Thumbnail)), "image/webp"); err != nil {
			log.Warnf("[Reports] Thumbnail upload failed for %s: %v", photoKey, err)
		} else if thumbURL, err := s.blobs.URL(ctx, thumbKey); err == nil {
			report.ThumbnailURL = &thumbURL
		}
	}

	report.Latitude = photo.Metadata.Latitude
	report.Longitude = photo.Metadata.Longitude
	report.PhotoTakenAt = photo.Metadata.TakenAt
	return nil
}

// load runs the owner query and returns the result newest first.
func (s *Service) load(ctx context.Context, ownerID uint) ([]models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.store.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Report, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		// the store filters by owner, this keeps a misbehaving store from leaking rows
		if list[i].UserID != ownerID {
			continue
		}
		out = append(out, list[i])
	}
	return out, nil
}

func (c *Coordinator) refresh(ctx context.Context, ownerID uint) {
	list, err := c.svc.load(ctx, ownerID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Errorf("[Reports] Loading reports for user %d failed: %v", ownerID, err)
		c.list.Set(ListState{Error: err.Error()})
		return
	}
	c.list.Set(ListState{Reports: list})
}

// Fetch loads a one-shot snapshot of the owner's reports into the list state.
func (c *Coordinator) Fetch(ctx context.Context, owner *identity.Identity) (ListState, error) {
	if owner == nil {
		c.list.Set(ListState{Error: ErrListUnauthorized.Error()})
		return c.list.Get(), ErrListUnauthorized
	}

	list, err := c.svc.load(ctx, owner.ID)
	if err != nil {
		c.list.Set(ListState{Error: err.Error()})
		return c.list.Get(), err
	}
	c.list.Set(ListState{Reports: list})
	return c.list.Get(), nil
}

// Watch keeps the list state in sync with the owner's reports until ctx is
// done. The initial load and every change notification replace the whole list.
func (c *Coordinator) Watch(ctx context.Context, owner *identity.Identity) error {
	if owner == nil {
		c.list.Set(ListState{Error: ErrListUnauthorized.Error()})
		return ErrListUnauthorized
	}

	c.list.Set(ListState{Loading: true})

	changes, err := c.svc.feed.Subscribe(ctx, owner.ID)
	if err != nil {
		c.list.Set(ListState{Error: err.Error()})
		return err
	}

	go func() {
		c.refresh(ctx, owner.ID)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				c.refresh(ctx, owner.ID)
			}
		}
	}()
	return nil
}

// Find returns one of owner's reports. Reports of other users are reported
// as ErrNotFound.
func (c *Coordinator) Find(ctx context.Context, owner *identity.Identity, id string) (*models.Report, error) {
	if owner == nil {
		return nil, ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, c.svc.storeTimeout)
	defer cancel()

	report, err := c.svc.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if report == nil || report.UserID != owner.ID {
		return nil, ErrNotFound
	}
	return report, nil
}
